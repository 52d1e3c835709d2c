package roleselector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

type fakeSource struct {
	realmRoles  []model.Role
	clients     []model.ClientRef
	clientRoles map[string][]model.Role
	queried     []string
	err         error
}

func (f *fakeSource) GetRealmRoles(_ context.Context, _ string) ([]model.Role, error) {
	return f.realmRoles, f.err
}

func (f *fakeSource) GetClients(_ context.Context, _ string) ([]model.ClientRef, error) {
	return f.clients, nil
}

func (f *fakeSource) GetClientRoles(_ context.Context, _ string, id string) ([]model.Role, error) {
	f.queried = append(f.queried, id)
	return f.clientRoles[id], nil
}

func newSource() *fakeSource {
	return &fakeSource{
		realmRoles: []model.Role{{ID: "r1", Name: "admin"}, {ID: "r2", Name: "user"}},
		clients: []model.ClientRef{
			{ID: "c-1", ClientID: "broker"},
			{ID: "c-2", ClientID: "account"},
		},
		clientRoles: map[string][]model.Role{
			"c-1": {{Name: "read-token", ClientRole: true}},
			"c-2": {{Name: "manage-account", ClientRole: true}},
		},
	}
}

func TestOpen_SelectsFirstClient(t *testing.T) {
	src := newSource()
	s, err := Open(context.Background(), src, zap.NewNop(), "demo", map[string]string{}, "role")
	require.NoError(t, err)

	assert.Equal(t, StateReady, s.State())
	v := s.View()
	require.NotNil(t, v.SelectedClient)
	assert.Equal(t, "broker", v.SelectedClient.ClientID)
	assert.Equal(t, []string{"c-1"}, src.queried)
	assert.Len(t, v.ClientRoles, 1)
}

func TestSelectRealmRole_WritesBareName(t *testing.T) {
	cfg := map[string]string{"other": "keep"}
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", cfg, "role")
	require.NoError(t, err)

	require.NoError(t, s.SelectRealmRole("admin"))
	assert.Equal(t, "admin", cfg["role"])
	assert.Equal(t, "keep", cfg["other"])
	assert.Equal(t, StateClosed, s.State())
}

func TestSelectClientRole_WritesCompositeName(t *testing.T) {
	cfg := map[string]string{}
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", cfg, "role")
	require.NoError(t, err)

	require.NoError(t, s.ChangeClientByID(context.Background(), "c-2"))
	require.NoError(t, s.SelectClientRole("manage-account"))
	assert.Equal(t, "account.manage-account", cfg["role"])
}

func TestSelection_OnlyOnce(t *testing.T) {
	cfg := map[string]string{}
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", cfg, "role")
	require.NoError(t, err)

	require.NoError(t, s.SelectRealmRole("user"))
	err = s.SelectClientRole("read-token")
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, "user", cfg["role"])
}

func TestChangeClient_NilClearsRoles(t *testing.T) {
	cfg := map[string]string{}
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", cfg, "role")
	require.NoError(t, err)

	require.NoError(t, s.ChangeClient(context.Background(), nil))
	v := s.View()
	assert.Nil(t, v.SelectedClient)
	assert.Empty(t, v.ClientRoles)

	assert.ErrorIs(t, s.SelectClientRole("read-token"), ErrNoClient)
	assert.Empty(t, cfg)
}

func TestChangeClientByID_Unknown(t *testing.T) {
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", map[string]string{}, "role")
	require.NoError(t, err)

	require.NoError(t, s.ChangeClientByID(context.Background(), "missing"))
	assert.Nil(t, s.View().SelectedClient)
}

func TestCancel_LeavesConfig(t *testing.T) {
	cfg := map[string]string{"role": "before"}
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", cfg, "role")
	require.NoError(t, err)

	s.Cancel()
	assert.Equal(t, StateCancelled, s.State())
	assert.ErrorIs(t, s.SelectRealmRole("admin"), ErrNotReady)
	assert.Equal(t, "before", cfg["role"])
}

func TestSelectRealmRole_Unknown(t *testing.T) {
	s, err := Open(context.Background(), newSource(), zap.NewNop(), "demo", map[string]string{}, "role")
	require.NoError(t, err)
	assert.ErrorIs(t, s.SelectRealmRole("ghost"), ErrUnknownRole)
	assert.Equal(t, StateReady, s.State())
}

func TestOpen_NoClients(t *testing.T) {
	src := newSource()
	src.clients = nil
	s, err := Open(context.Background(), src, zap.NewNop(), "demo", map[string]string{}, "role")
	require.NoError(t, err)
	assert.Empty(t, src.queried)
	assert.Nil(t, s.View().SelectedClient)
}

func TestOpen_QueryFailure(t *testing.T) {
	src := newSource()
	src.err = errors.New("boom")
	_, err := Open(context.Background(), src, zap.NewNop(), "demo", map[string]string{}, "role")
	require.Error(t, err)
}

func TestProviderConfig_ThreadsKey(t *testing.T) {
	p := NewProviderConfig(newSource(), zap.NewNop(), "demo")
	s, err := p.OpenRoleSelector(context.Background(), "syncRole", nil)
	require.NoError(t, err)

	require.NoError(t, s.SelectClientRole("read-token"))
	assert.Equal(t, map[string]string{"syncRole": "broker.read-token"}, s.Config())
}
