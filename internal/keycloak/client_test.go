package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// newTestClient starts a fake Keycloak that answers the service-account
// token request and delegates everything else to mux.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	mux.HandleFunc("POST /realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"svc-token","expires_in":300,"token_type":"Bearer"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		KeycloakURL:          srv.URL,
		KeycloakRealm:        "master",
		KeycloakClientID:     "realm-console",
		KeycloakClientSecret: "secret",
	}
	c, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	return c
}

func writeJSONBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestPartialImport_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/realms/demo/partialImport", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SKIP", body["ifResourceExists"])

		writeJSONBody(w, http.StatusOK, `{"added":3,"skipped":1,"overwritten":0,"results":[{"action":"ADDED","resourceType":"USER","resourceName":"alice"}]}`)
	})
	c := newTestClient(t, mux)

	res, err := c.PartialImport(context.Background(), "demo", map[string]any{
		"users":            []any{map[string]any{"username": "alice"}},
		"ifResourceExists": "SKIP",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "alice", res.Results[0].ResourceName)
}

func TestPartialImport_RemoteErrorMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/realms/demo/partialImport", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(w, http.StatusConflict, `{"errorMessage":"duplicate username"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.PartialImport(context.Background(), "demo", map[string]any{})
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.Equal(t, "duplicate username", re.Message)
}

func TestLocalExport_PassesSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/realms/demo/users/localExport", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ali", r.URL.Query().Get("search"))
		writeJSONBody(w, http.StatusOK, `[{"username":"alice"}]`)
	})
	c := newTestClient(t, mux)

	raw, err := c.LocalExport(context.Background(), "demo", "users", "ali")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"alice"}]`, string(raw))
}

func TestServerExport_Params(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/realms/demo/roles/serverExport", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "keycloak-roles", q.Get("fileName"))
		assert.Equal(t, "true", q.Get("condensed"))
		assert.False(t, q.Has("search"))
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)

	err := c.ServerExport(context.Background(), "demo", "roles", "", "keycloak-roles", true)
	require.NoError(t, err)
}

func TestGetApplications_AcceptsBothShapes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /realms/wrapped/account/applications", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		writeJSONBody(w, http.StatusOK, `{"applications":[{"clientId":"app-a"}]}`)
	})
	mux.HandleFunc("GET /realms/bare/account/applications", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(w, http.StatusOK, `[{"clientId":"app-b"},{"clientId":"app-c"}]`)
	})
	c := newTestClient(t, mux)

	apps, err := c.GetApplications(context.Background(), "user-token", "wrapped")
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-a", apps[0].ClientID)

	apps, err = c.GetApplications(context.Background(), "user-token", "bare")
	require.NoError(t, err)
	assert.Len(t, apps, 2)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body       string
		wantMsg    string
		wantDetail string
	}{
		{`{"errorMessage":"duplicate username"}`, "duplicate username", ""},
		{`{"error":"invalid_grant","error_description":"bad creds"}`, "", "invalid_grant bad creds"},
		{`{"error":"unknown_error"}`, "", "unknown_error"},
		{`{}`, "", ""},
		{`<html>oops</html>`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			msg, detail := errorMessage([]byte(tt.body))
			assert.Equal(t, tt.wantMsg, msg)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestPartialImport_OAuthErrorUsesFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/realms/demo/partialImport", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(w, http.StatusInternalServerError, `{"error":"unknown_error"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.PartialImport(context.Background(), "demo", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "Unexpected error during import", model.FailureMessage(err, "Unexpected error during import"))
	assert.Contains(t, err.Error(), "unknown_error")
}

func TestAccountURL(t *testing.T) {
	c := &Client{baseURL: "https://sso.example.com"}
	assert.Equal(t, "https://sso.example.com/realms/demo/account", c.accountURL("demo", "/"))
	assert.Equal(t, "https://sso.example.com/realms/demo/account/events", c.accountURL("demo", "/events"))
	assert.Equal(t, "https://sso.example.com/admin/realms/demo/identity-provider/instances/localExport",
		c.adminURL("demo", "identity-provider/instances/localExport"))
}
