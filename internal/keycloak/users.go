package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// SearchUsers returns a page of users of realm matching search.
func (c *Client) SearchUsers(ctx context.Context, realm, search string, first, max int) ([]model.UserSummary, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	params := gocloak.GetUsersParams{
		First: gocloak.IntP(first),
		Max:   gocloak.IntP(max),
	}
	if search != "" {
		params.Search = gocloak.StringP(search)
	}

	users, err := c.gc.GetUsers(ctx, token, realm, params)
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_users").Inc()
		return nil, fmt.Errorf("get users: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_users", "success").Inc()

	result := make([]model.UserSummary, 0, len(users))
	for _, u := range users {
		result = append(result, model.UserSummary{
			ID:        deref(u.ID),
			Username:  deref(u.Username),
			Email:     deref(u.Email),
			FirstName: deref(u.FirstName),
			LastName:  deref(u.LastName),
			Enabled:   derefBool(u.Enabled),
		})
	}
	return result, nil
}
