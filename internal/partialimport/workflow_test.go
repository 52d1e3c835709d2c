package partialimport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/keycloak"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

type fakeBackend struct {
	calls    int
	payload  map[string]any
	resource string
	result   *model.ImportResult
	err      error
}

func (f *fakeBackend) PartialImport(_ context.Context, _ string, payload map[string]any) (*model.ImportResult, error) {
	f.calls++
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) ImportSection(_ context.Context, _ string, resource string, payload map[string]any) error {
	f.calls++
	f.resource = resource
	f.payload = payload
	return f.err
}

type serverErr struct{ msg string }

func (e *serverErr) Error() string         { return "remote: " + e.msg }
func (e *serverErr) ServerMessage() string { return e.msg }

const fullRealm = `{
  "realm": "demo",
  "users": [{"username": "alice"}, {"username": "bob"}],
  "clients": [{"clientId": "app"}],
  "identityProviders": [{"alias": "github"}],
  "roles": {
    "realm": [{"name": "admin"}],
    "client": {"app": [{"name": "viewer"}, {"name": "editor"}]}
  }
}`

func load(t *testing.T, raw string) *Workflow {
	t.Helper()
	w := NewWorkflow()
	require.NoError(t, w.Load([]byte(raw)))
	return w
}

func TestLoad_EnablesPresentCategories(t *testing.T) {
	w := load(t, fullRealm)
	for _, c := range Categories {
		assert.True(t, w.Enabled(c), "category %s", c)
	}

	p := w.Preview("sid")
	assert.Equal(t, "demo", p.FileRealm)
	assert.False(t, p.MultiRealm)
	assert.True(t, p.Changed)
	counts := map[string]int{}
	for _, c := range p.Categories {
		counts[c.Category] = c.Count
	}
	assert.Equal(t, map[string]int{
		"users": 2, "clients": 1, "identityProviders": 1, "realmRoles": 1, "clientRoles": 2,
	}, counts)
}

func TestLoad_OnlyUsers(t *testing.T) {
	backend := &fakeBackend{result: &model.ImportResult{Added: 1}}
	w := load(t, `{"realm":"demo","users":[{"username":"alice"}]}`)

	assert.True(t, w.Enabled(CategoryUsers))
	for _, c := range []Category{CategoryClients, CategoryIdentityProviders, CategoryRealmRoles, CategoryClientRoles} {
		assert.False(t, w.Enabled(c), "category %s", c)
	}

	_, err := w.Submit(context.Background(), backend, "demo")
	require.NoError(t, err)
	require.Equal(t, 1, backend.calls)
	assert.Contains(t, backend.payload, "users")
	assert.NotContains(t, backend.payload, "clients")
	assert.NotContains(t, backend.payload, "identityProviders")
	assert.NotContains(t, backend.payload, "roles")
	assert.Equal(t, "demo", backend.payload["realm"])
	assert.Equal(t, "FAIL", backend.payload["ifResourceExists"])
}

func TestPresence_Rules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cat  Category
		want bool
	}{
		{"empty array", `{"users":[]}`, CategoryUsers, false},
		{"not an array", `{"users":{"alice":{}}}`, CategoryUsers, false},
		{"null", `{"clients":null}`, CategoryClients, false},
		{"realm roles", `{"roles":{"realm":[{"name":"a"}]}}`, CategoryRealmRoles, true},
		{"empty client role map", `{"roles":{"client":{}}}`, CategoryClientRoles, false},
		{"client role map", `{"roles":{"client":{"app":[]}}}`, CategoryClientRoles, true},
		{"client roles as array", `{"roles":{"client":[{"name":"a"}]}}`, CategoryClientRoles, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Present(tt.cat))
		})
	}
}

func TestSubmit_NothingToImportIssuesNoRequest(t *testing.T) {
	backend := &fakeBackend{}
	w := load(t, `{"realm":"demo","groups":[{"name":"g"}]}`)

	out, err := w.Submit(context.Background(), backend, "demo")
	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, model.Failure("Nothing to import"), out.Notification)
}

func TestSubmit_AllTogglesOff(t *testing.T) {
	backend := &fakeBackend{}
	w := load(t, fullRealm)
	for _, c := range Categories {
		require.NoError(t, w.Toggle(c, false))
	}

	_, err := w.Submit(context.Background(), backend, "demo")
	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Equal(t, 0, backend.calls)
}

func TestLoad_MultiRealmTakesFirst(t *testing.T) {
	w := load(t, `[{"realm":"a","users":[{"username":"x"}]},{"realm":"b"}]`)
	p := w.Preview("")
	assert.True(t, p.MultiRealm)
	assert.Equal(t, "a", p.FileRealm)

	details, err := w.Details()
	require.NoError(t, err)
	assert.Equal(t, "a", details["realm"])
}

func TestLoad_MalformedLeavesStateUntouched(t *testing.T) {
	w := load(t, fullRealm)
	w.SetPolicy(PolicySkip)

	err := w.Load([]byte(`{"realm": `))
	assert.ErrorIs(t, err, ErrMalformedFile)
	assert.True(t, IsValidation(err))

	assert.Equal(t, "demo", w.Preview("").FileRealm)
	assert.True(t, w.Enabled(CategoryUsers))
	assert.Equal(t, PolicySkip, w.Policy())
}

func TestLoad_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"realm"`, `42`, `[1,2]`, `{} {}`} {
		w := NewWorkflow()
		err := w.Load([]byte(raw))
		assert.Error(t, err, raw)
		assert.True(t, IsValidation(err), raw)
		assert.False(t, w.Loaded())
	}
}

func TestToggle(t *testing.T) {
	w := load(t, `{"users":[{"username":"alice"}]}`)

	assert.ErrorIs(t, w.Toggle(CategoryClients, true), ErrCategoryAbsent)
	assert.ErrorIs(t, w.Toggle(Category("groups"), true), ErrUnknownCategory)
	require.NoError(t, w.Toggle(CategoryClients, false))
	require.NoError(t, w.Toggle(CategoryUsers, false))
	assert.True(t, w.NothingToImport())

	assert.ErrorIs(t, NewWorkflow().Toggle(CategoryUsers, true), ErrNoFile)
}

func TestPayload_RoleFiltering(t *testing.T) {
	w := load(t, fullRealm)
	require.NoError(t, w.Toggle(CategoryClientRoles, false))

	payload, err := w.Payload()
	require.NoError(t, err)
	roles := payload["roles"].(map[string]any)
	assert.Contains(t, roles, "realm")
	assert.NotContains(t, roles, "client")

	require.NoError(t, w.Toggle(CategoryRealmRoles, false))
	payload, err = w.Payload()
	require.NoError(t, err)
	assert.NotContains(t, payload, "roles")
}

func TestPayload_DoesNotMutateDocument(t *testing.T) {
	w := load(t, fullRealm)
	require.NoError(t, w.Toggle(CategoryUsers, false))

	_, err := w.Payload()
	require.NoError(t, err)

	details, err := w.Details()
	require.NoError(t, err)
	assert.Contains(t, details, "users")
	assert.NotContains(t, details, "ifResourceExists")
}

func TestPolicy_MutualExclusion(t *testing.T) {
	w := NewWorkflow()

	w.SetSkip(true)
	assert.True(t, w.Skip())
	assert.False(t, w.Overwrite())

	w.SetOverwrite(true)
	assert.True(t, w.Overwrite())
	assert.False(t, w.Skip())

	w.SetSkip(true)
	assert.True(t, w.Skip())
	assert.False(t, w.Overwrite())

	w.SetOverwrite(false)
	assert.Equal(t, PolicySkip, w.Policy())

	w.SetSkip(false)
	assert.Equal(t, PolicyFail, w.Policy())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("overwrite")
	require.NoError(t, err)
	assert.Equal(t, PolicyOverwrite, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	_, err = ParsePolicy("merge")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "3 records added. 1 records skipped.",
		Summary(&model.ImportResult{Added: 3, Skipped: 1}, PolicySkip))
	assert.Equal(t, "3 records added. 2 records overwritten.",
		Summary(&model.ImportResult{Added: 3, Skipped: 5, Overwritten: 2}, PolicyOverwrite))
	assert.Equal(t, "3 records added.",
		Summary(&model.ImportResult{Added: 3, Skipped: 1, Overwritten: 2}, PolicyFail))
}

func TestSubmit_SuccessNotification(t *testing.T) {
	backend := &fakeBackend{result: &model.ImportResult{Added: 3, Skipped: 1}}
	w := load(t, fullRealm)
	w.SetPolicy(PolicySkip)

	out, err := w.Submit(context.Background(), backend, "demo")
	require.NoError(t, err)
	assert.Equal(t, model.Success("3 records added. 1 records skipped."), out.Notification)
	assert.Equal(t, "SKIP", backend.payload["ifResourceExists"])
}

func TestSubmit_ServerMessageVerbatim(t *testing.T) {
	backend := &fakeBackend{err: &serverErr{msg: "duplicate username"}}
	w := load(t, fullRealm)

	out, err := w.Submit(context.Background(), backend, "demo")
	require.Error(t, err)
	assert.Equal(t, model.Failure("duplicate username"), out.Notification)
	assert.True(t, w.Enabled(CategoryUsers))
}

func TestSubmit_FallbackMessage(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	w := load(t, fullRealm)

	out, err := w.Submit(context.Background(), backend, "demo")
	require.Error(t, err)
	assert.Equal(t, model.Failure("Unexpected error during import"), out.Notification)

	backend.err = &serverErr{}
	out, _ = w.Submit(context.Background(), backend, "demo")
	assert.Equal(t, "Unexpected error during import", out.Notification.Message)
}

func TestSubmit_OAuthOnlyErrorUsesFallback(t *testing.T) {
	backend := &fakeBackend{err: &keycloak.RemoteError{
		Operation: "partial_import",
		Status:    500,
		Detail:    "unknown_error",
	}}
	w := load(t, fullRealm)

	out, err := w.Submit(context.Background(), backend, "demo")
	require.Error(t, err)
	assert.Equal(t, model.Failure("Unexpected error during import"), out.Notification)
}

func TestReset_DiscardsEverything(t *testing.T) {
	w := load(t, fullRealm)
	w.SetPolicy(PolicyOverwrite)

	w.Reset()
	assert.False(t, w.Loaded())
	assert.Equal(t, PolicyFail, w.Policy())
	assert.True(t, w.NothingToImport())
	assert.False(t, w.Preview("").Changed)
}

func TestLoad_PreservesLargeNumbers(t *testing.T) {
	w := load(t, `{"users":[{"username":"a","createdTimestamp":1712345678901234567}]}`)
	payload, err := w.Payload()
	require.NoError(t, err)
	user := payload["users"].([]any)[0].(map[string]any)
	assert.Equal(t, "1712345678901234567", user["createdTimestamp"].(interface{ String() string }).String())
}

func TestImportSection(t *testing.T) {
	backend := &fakeBackend{}
	sec := section.Section{Name: "roles", DisplayName: "roles", ResourceName: "roles"}
	doc := map[string]any{"roles": map[string]any{"realm": []any{map[string]any{"name": "x"}}}}

	n, err := ImportSection(context.Background(), backend, "demo", sec, doc, PolicyOverwrite)
	require.NoError(t, err)
	assert.Equal(t, model.Success("The roles have been imported."), n)
	assert.Equal(t, "roles", backend.resource)
	assert.Equal(t, true, backend.payload["overwrite"])
	assert.Equal(t, false, backend.payload["skip"])
	assert.NotContains(t, doc, "skip")
}

func TestImportSection_Errors(t *testing.T) {
	sec := section.Section{Name: "users", DisplayName: "users", ResourceName: "users"}

	backend := &fakeBackend{}
	_, err := ImportSection(context.Background(), backend, "demo", sec, nil, PolicyFail)
	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Equal(t, 0, backend.calls)

	backend.err = &serverErr{msg: "User exists with same username"}
	n, err := ImportSection(context.Background(), backend, "demo", sec, map[string]any{"users": []any{}}, PolicyFail)
	require.Error(t, err)
	assert.Equal(t, model.Failure("User exists with same username"), n)
}

func TestStore(t *testing.T) {
	s := NewStore(2, time.Minute)
	a := s.Create("alice", "demo", NewWorkflow())
	assert.NotEmpty(t, a.ID)

	got, ok := s.Get(a.ID, "alice", "demo")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = s.Get(a.ID, "bob", "demo")
	assert.False(t, ok)
	_, ok = s.Get(a.ID, "alice", "other")
	assert.False(t, ok)

	s.Create("bob", "demo", NewWorkflow())
	s.Create("carol", "demo", NewWorkflow())
	assert.Equal(t, 2, s.Len())
	_, ok = s.Get(a.ID, "alice", "demo")
	assert.False(t, ok, "oldest session evicted")

	s.Delete("missing")
	assert.Equal(t, 2, s.Len())
}

func TestToggleAll_AllOrNothing(t *testing.T) {
	w := load(t, `{"users":[{"username":"alice"}],"clients":[{"clientId":"app"}]}`)

	err := w.ToggleAll(map[string]bool{"users": false, "identityProviders": true})
	assert.ErrorIs(t, err, ErrCategoryAbsent)
	assert.True(t, w.Enabled(CategoryUsers))

	err = w.ToggleAll(map[string]bool{"users": false, "groups": false})
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.True(t, w.Enabled(CategoryUsers))

	require.NoError(t, w.ToggleAll(map[string]bool{"users": false}))
	assert.False(t, w.Enabled(CategoryUsers))
	assert.True(t, w.Enabled(CategoryClients))

	assert.ErrorIs(t, NewWorkflow().ToggleAll(map[string]bool{"users": true}), ErrNoFile)
}
