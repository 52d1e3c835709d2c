// Package account implements the end-user account console pages on top of
// the Keycloak account API. Every call carries the user's own bearer token.
package account

import (
	"context"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// Backend is the Keycloak account API.
type Backend interface {
	GetAccount(ctx context.Context, userToken, realm string) (*model.Account, error)
	UpdateAccount(ctx context.Context, userToken, realm string, acct model.Account) error
	GetApplications(ctx context.Context, userToken, realm string) ([]model.Application, error)
	GetSessions(ctx context.Context, userToken, realm string) ([]model.Session, error)
	GetEvents(ctx context.Context, userToken, realm string) ([]model.Event, error)
}

// Caller identifies the user on whose behalf a page talks to Keycloak.
type Caller struct {
	Token string
	Realm string
}
