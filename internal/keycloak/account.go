package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// The account API is called with the end user's own bearer token, never the
// service-account token.

// GetAccount returns the profile of the token's owner.
func (c *Client) GetAccount(ctx context.Context, userToken, realm string) (*model.Account, error) {
	var acct model.Account
	resp, err := c.gc.GetRequestWithBearerAuth(ctx, userToken).
		SetHeader("Accept", "application/json").
		SetResult(&acct).
		Get(c.accountURL(realm, "/"))
	if err := checkResponse("account_get", resp, err); err != nil {
		return nil, err
	}
	return &acct, nil
}

// UpdateAccount posts the edited profile.
func (c *Client) UpdateAccount(ctx context.Context, userToken, realm string, acct model.Account) error {
	resp, err := c.gc.GetRequestWithBearerAuth(ctx, userToken).
		SetHeader("Accept", "application/json").
		SetBody(acct).
		Post(c.accountURL(realm, "/"))
	return checkResponse("account_update", resp, err)
}

// GetApplications returns the applications visible to the user. Both the
// wrapped {"applications": [...]} form and a bare array are accepted.
func (c *Client) GetApplications(ctx context.Context, userToken, realm string) ([]model.Application, error) {
	resp, err := c.gc.GetRequestWithBearerAuth(ctx, userToken).
		SetHeader("Accept", "application/json").
		Get(c.accountURL(realm, "/applications"))
	if err := checkResponse("account_applications", resp, err); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(resp.Body())
	var apps []model.Application
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &apps); err != nil {
			return nil, fmt.Errorf("decode applications: %w", err)
		}
		return apps, nil
	}

	var wrapped struct {
		Applications []model.Application `json:"applications"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return wrapped.Applications, nil
}

// GetSessions returns the user's active sessions.
func (c *Client) GetSessions(ctx context.Context, userToken, realm string) ([]model.Session, error) {
	var sessions []model.Session
	resp, err := c.gc.GetRequestWithBearerAuth(ctx, userToken).
		SetHeader("Accept", "application/json").
		SetResult(&sessions).
		Get(c.accountURL(realm, "/sessions"))
	if err := checkResponse("account_sessions", resp, err); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetEvents returns the user's recent login events.
func (c *Client) GetEvents(ctx context.Context, userToken, realm string) ([]model.Event, error) {
	var events []model.Event
	resp, err := c.gc.GetRequestWithBearerAuth(ctx, userToken).
		SetHeader("Accept", "application/json").
		SetResult(&events).
		Get(c.accountURL(realm, "/events"))
	if err := checkResponse("account_events", resp, err); err != nil {
		return nil, err
	}
	return events, nil
}
