package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// GetRealmRoles returns all realm-level roles of realm.
func (c *Client) GetRealmRoles(ctx context.Context, realm string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetRealmRoles(ctx, token, realm, gocloak.GetRoleParams{})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_realm_roles").Inc()
		return nil, fmt.Errorf("get realm roles: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_realm_roles", "success").Inc()

	result := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		result = append(result, mapRole(r))
	}
	return result, nil
}

// GetClientRoles returns the roles defined by the client with internal id idOfClient.
func (c *Client) GetClientRoles(ctx context.Context, realm, idOfClient string) ([]model.Role, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	roles, err := c.gc.GetClientRoles(ctx, token, realm, idOfClient, gocloak.GetRoleParams{})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_client_roles").Inc()
		return nil, fmt.Errorf("get client roles %s: %w", idOfClient, err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_client_roles", "success").Inc()

	result := make([]model.Role, 0, len(roles))
	for _, r := range roles {
		result = append(result, mapRole(r))
	}
	return result, nil
}

func mapRole(r *gocloak.Role) model.Role {
	return model.Role{
		ID:          deref(r.ID),
		Name:        deref(r.Name),
		Description: deref(r.Description),
		Composite:   derefBool(r.Composite),
		ClientRole:  derefBool(r.ClientRole),
		ContainerID: deref(r.ContainerID),
	}
}
