package keycloak

import (
	"context"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// GetClients returns every client registered in realm.
func (c *Client) GetClients(ctx context.Context, realm string) ([]model.ClientRef, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := c.gc.GetClients(ctx, token, realm, gocloak.GetClientsParams{})
	if err != nil {
		metrics.KeycloakErrorsTotal.WithLabelValues("get_clients").Inc()
		return nil, fmt.Errorf("get clients: %w", err)
	}

	metrics.KeycloakRequestsTotal.WithLabelValues("get_clients", "success").Inc()

	result := make([]model.ClientRef, 0, len(clients))
	for _, cl := range clients {
		if cl.ID == nil {
			continue
		}
		result = append(result, model.ClientRef{
			ID:       *cl.ID,
			ClientID: deref(cl.ClientID),
			Name:     deref(cl.Name),
		})
	}
	return result, nil
}
