package roleselector

import (
	"context"

	"go.uber.org/zap"
)

// ProviderConfig opens role selectors on behalf of an identity provider or
// user federation configuration form of one realm.
type ProviderConfig struct {
	source RoleSource
	logger *zap.Logger
	realm  string
}

// NewProviderConfig returns a helper bound to realm.
func NewProviderConfig(source RoleSource, logger *zap.Logger, realm string) *ProviderConfig {
	return &ProviderConfig{source: source, logger: logger, realm: realm}
}

// OpenRoleSelector opens a selector that writes into config[configName].
func (p *ProviderConfig) OpenRoleSelector(ctx context.Context, configName string, config map[string]string) (*Selector, error) {
	if config == nil {
		config = make(map[string]string)
	}
	return Open(ctx, p.source, p.logger, p.realm, config, configName)
}
