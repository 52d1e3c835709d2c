package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/handler"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialimport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/querystore"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

func testConfig() *config.Config {
	return &config.Config{
		OIDCIssuerURL:  "http://127.0.0.1:1/realms/master",
		OIDCClientID:   "console",
		KeycloakRealm:  "master",
		AccountRealm:   "master",
		AdminGroups:    []string{"realm-admins"},
		CORSOrigin:     "https://console.example.com",
		MaxUploadBytes: 1 << 16,
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
	}
}

func testHandler(cfg *config.Config) *handler.Handler {
	return handler.NewHandler(cfg, nil, nil,
		partialimport.NewStore(4, time.Minute),
		querystore.New(4, time.Minute),
		section.NewRegistry(config.DefaultSections()),
		nil, zap.NewNop())
}

func TestRouter_HealthzAndRequestID(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testHandler(cfg), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ExposesExportHeaders(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testHandler(cfg), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	exposed := strings.Split(rec.Header().Get("Access-Control-Expose-Headers"), ", ")
	assert.Contains(t, exposed, "X-Notification")
	assert.Contains(t, exposed, "Content-Disposition")
	assert.Contains(t, exposed, "X-Request-ID")
}

func TestRouter_Preflight(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testHandler(cfg), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/admin/realms/demo/sections", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_AdminNeedsIssuer(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testHandler(cfg), zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/realms/demo/sections", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRoutes_SectionsAndRateLimit(t *testing.T) {
	cfg := testConfig()
	mux := AdminRoutes(cfg, testHandler(cfg))

	send := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), &middleware.Claims{Subject: "admin-1"}, "t"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodGet, "/api/v1/admin/realms/demo/sections")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keycloak-identityProviders"`)

	// The first upload is rejected for its empty body, the second never
	// reaches the handler.
	rec = send(http.MethodPost, "/api/v1/admin/realms/demo/partial-import")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = send(http.MethodPost, "/api/v1/admin/realms/demo/partial-import")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var limited model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &limited))
	assert.Equal(t, "RATE_LIMITED", limited.Code)
	assert.Equal(t, model.NotificationError, limited.Notification.Type)

	rec = send(http.MethodGet, "/api/v1/admin/realms/demo/sections/groups/export/local")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminRoutes_RejectsEscapedRealm(t *testing.T) {
	cfg := testConfig()
	mux := AdminRoutes(cfg, testHandler(cfg))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/realms/..%2Fescaped/sections/roles/export/server", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), &middleware.Claims{Subject: "admin-1"}, "t"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_REALM", body.Code)
}
