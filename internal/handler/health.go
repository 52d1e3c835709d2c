package handler

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// Healthz is the liveness probe. Always returns 200.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is the readiness probe. Checks Keycloak and, when configured,
// Vault connectivity.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	type checkResult struct {
		name string
		err  error
	}

	checks := map[string]HealthChecker{"keycloak": h.KC}
	if h.Vault != nil {
		checks["vault"] = h.Vault
	}

	var wg sync.WaitGroup
	results := make(chan checkResult, len(checks))

	for name, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- checkResult{name: name, err: c.Healthy(ctx)}
		}()
	}

	wg.Wait()
	close(results)

	status := map[string]string{}
	allHealthy := true

	for cr := range results {
		if cr.err != nil {
			status[cr.name] = "unavailable"
			allHealthy = false
			h.Logger.Warn("readiness check failed",
				zap.String("component", cr.name),
				zap.Error(cr.err),
			)
		} else {
			status[cr.name] = "ok"
		}
	}

	status["status"] = "ok"
	httpStatus := http.StatusOK
	if !allHealthy {
		status["status"] = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, status)
}

// GetPublicConfig handles GET /api/v1/config
// Returns public configuration needed by the frontend for OIDC login.
func (h *Handler) GetPublicConfig(w http.ResponseWriter, r *http.Request) {
	cfg := model.PublicConfig{
		KeycloakURL:  h.Config.KeycloakURL,
		Realm:        h.Config.KeycloakRealm,
		AccountRealm: h.Config.AccountRealm,
		ClientID:     h.Config.OIDCClientID,
		IssuerURL:    h.Config.OIDCIssuerURL,
		ResourceURL:  h.Config.ResourceURL,
	}

	writeJSON(w, http.StatusOK, cfg)
}
