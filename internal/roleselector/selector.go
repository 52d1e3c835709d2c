// Package roleselector implements the role selector dialog that writes a
// realm role or a client role into a provider configuration entry.
package roleselector

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// State is the dialog lifecycle state.
type State string

const (
	StateLoading   State = "loading-roles"
	StateReady     State = "ready"
	StateClosed    State = "closed"
	StateCancelled State = "cancelled"
)

var (
	// ErrNotReady is returned when a selection is made before roles loaded
	// or after the dialog was closed.
	ErrNotReady = errors.New("role selector is not ready")
	// ErrNoClient is returned when a client role is chosen without a selected client.
	ErrNoClient = errors.New("no client selected")
	// ErrUnknownRole is returned when the chosen role is not offered by the dialog.
	ErrUnknownRole = errors.New("unknown role")
)

// RoleSource is the backend the selector queries.
type RoleSource interface {
	GetRealmRoles(ctx context.Context, realm string) ([]model.Role, error)
	GetClients(ctx context.Context, realm string) ([]model.ClientRef, error)
	GetClientRoles(ctx context.Context, realm, idOfClient string) ([]model.Role, error)
}

// Selector is one open role selector dialog bound to a configuration entry.
type Selector struct {
	source     RoleSource
	logger     *zap.Logger
	realm      string
	config     map[string]string
	configName string

	state          State
	realmRoles     []model.Role
	clients        []model.ClientRef
	selectedClient *model.ClientRef
	clientRoles    []model.Role
}

// Open loads the realm roles and clients of realm. When the realm has
// clients the first one is selected and its roles are loaded.
func Open(ctx context.Context, source RoleSource, logger *zap.Logger, realm string, config map[string]string, configName string) (*Selector, error) {
	s := &Selector{
		source:     source,
		logger:     logger,
		realm:      realm,
		config:     config,
		configName: configName,
		state:      StateLoading,
	}

	realmRoles, err := source.GetRealmRoles(ctx, realm)
	if err != nil {
		return nil, fmt.Errorf("load realm roles: %w", err)
	}
	s.realmRoles = realmRoles

	clients, err := source.GetClients(ctx, realm)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	s.clients = clients

	if len(clients) > 0 {
		if err := s.ChangeClient(ctx, &clients[0]); err != nil {
			return nil, err
		}
	}

	s.state = StateReady
	return s, nil
}

// ChangeClient selects client and re-queries its roles. A nil client clears
// the role list.
func (s *Selector) ChangeClient(ctx context.Context, client *model.ClientRef) error {
	if client == nil {
		s.logger.Debug("selected client was null", zap.String("realm", s.realm))
		s.selectedClient = nil
		s.clientRoles = nil
		return nil
	}

	roles, err := s.source.GetClientRoles(ctx, s.realm, client.ID)
	if err != nil {
		return fmt.Errorf("load roles of client %s: %w", client.ClientID, err)
	}

	selected := *client
	s.selectedClient = &selected
	s.clientRoles = roles
	return nil
}

// ChangeClientByID selects the client with the given internal id. An id
// that matches no client behaves like a null selection.
func (s *Selector) ChangeClientByID(ctx context.Context, id string) error {
	for i := range s.clients {
		if s.clients[i].ID == id {
			return s.ChangeClient(ctx, &s.clients[i])
		}
	}
	return s.ChangeClient(ctx, nil)
}

// SelectRealmRole writes the bare role name into the configuration entry.
func (s *Selector) SelectRealmRole(roleName string) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	role, ok := findRole(s.realmRoles, roleName)
	if !ok {
		return fmt.Errorf("%w: realm role %q", ErrUnknownRole, roleName)
	}

	s.config[s.configName] = role.Name
	s.state = StateClosed
	metrics.RoleSelectionsTotal.WithLabelValues("realm").Inc()
	return nil
}

// SelectClientRole writes "<clientId>.<roleName>" into the configuration entry.
func (s *Selector) SelectClientRole(roleName string) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	if s.selectedClient == nil {
		return ErrNoClient
	}
	role, ok := findRole(s.clientRoles, roleName)
	if !ok {
		return fmt.Errorf("%w: client role %q", ErrUnknownRole, roleName)
	}

	s.config[s.configName] = s.selectedClient.ClientID + "." + role.Name
	s.state = StateClosed
	metrics.RoleSelectionsTotal.WithLabelValues("client").Inc()
	return nil
}

// Cancel dismisses the dialog without touching the configuration.
func (s *Selector) Cancel() {
	if s.state == StateReady || s.state == StateLoading {
		s.state = StateCancelled
	}
}

// State returns the current lifecycle state.
func (s *Selector) State() State {
	return s.state
}

// Config returns the configuration the dialog writes into.
func (s *Selector) Config() map[string]string {
	return s.config
}

// View renders the dialog state.
func (s *Selector) View() model.RoleSelectorView {
	v := model.RoleSelectorView{
		State:       string(s.state),
		RealmRoles:  nonNilRoles(s.realmRoles),
		Clients:     s.clients,
		ClientRoles: nonNilRoles(s.clientRoles),
	}
	if v.Clients == nil {
		v.Clients = []model.ClientRef{}
	}
	if s.selectedClient != nil {
		c := *s.selectedClient
		v.SelectedClient = &c
	}
	return v
}

func findRole(roles []model.Role, name string) (model.Role, bool) {
	for _, r := range roles {
		if r.Name == name {
			return r, true
		}
	}
	return model.Role{}, false
}

func nonNilRoles(roles []model.Role) []model.Role {
	if roles == nil {
		return []model.Role{}
	}
	return roles
}
