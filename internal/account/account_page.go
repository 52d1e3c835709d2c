package account

import (
	"context"
	"fmt"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// AccountPage is the profile form of the signed-in user.
type AccountPage struct {
	backend Backend
	caller  Caller
	account *model.Account
}

// NewAccountPage returns an empty profile page for caller.
func NewAccountPage(backend Backend, caller Caller) *AccountPage {
	return &AccountPage{backend: backend, caller: caller}
}

// Load fetches the profile.
func (p *AccountPage) Load(ctx context.Context) (*model.Account, error) {
	acct, err := p.backend.GetAccount(ctx, p.caller.Token, p.caller.Realm)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	p.account = acct
	return acct, nil
}

// Save posts the edited profile and reloads it. The username is not
// editable and is always taken from the loaded profile.
func (p *AccountPage) Save(ctx context.Context, edited model.Account) (*model.Account, error) {
	if p.account == nil {
		if _, err := p.Load(ctx); err != nil {
			return nil, err
		}
	}
	edited.Username = p.account.Username

	if err := p.backend.UpdateAccount(ctx, p.caller.Token, p.caller.Realm, edited); err != nil {
		return nil, fmt.Errorf("saving account: %w", err)
	}
	return p.Load(ctx)
}
