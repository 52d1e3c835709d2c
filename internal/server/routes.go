package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/handler"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
)

// NewRouter builds the complete HTTP handler with all routes and middleware.
func NewRouter(cfg *config.Config, h *handler.Handler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Unauthenticated routes ---
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// --- Public config (no auth needed, used by frontend) ---
	mux.HandleFunc("GET /api/v1/config", h.GetPublicConfig)

	// --- Self-service routes (require valid OIDC token) ---
	selfMux := http.NewServeMux()
	selfMux.HandleFunc("GET /api/v1/self/account", h.GetAccount)
	selfMux.HandleFunc("POST /api/v1/self/account", h.UpdateAccount)
	selfMux.HandleFunc("GET /api/v1/self/applications", h.GetApplications)
	selfMux.HandleFunc("GET /api/v1/self/events", h.GetEvents)
	selfMux.HandleFunc("POST /api/v1/self/events/refresh", h.GetEvents)
	selfMux.HandleFunc("GET /api/v1/self/nav", h.GetTopNav)

	authMiddleware := middleware.OIDCAuth(logger, cfg.OIDCIssuerURL, cfg.OIDCClientID)
	mux.Handle("/api/v1/self/", authMiddleware(selfMux))

	// --- Admin routes (require valid OIDC token + admin group membership) ---
	adminMux := AdminRoutes(cfg, h)

	// Chain: OIDC auth -> require admin groups
	adminHandler := authMiddleware(
		middleware.RequireGroups(logger, cfg.AdminGroups...)(adminMux),
	)
	mux.Handle("/api/v1/admin/", adminHandler)

	// --- Apply global middleware (outermost first) ---
	var root http.Handler = mux
	root = cors(cfg.CORSOrigin)(root)
	root = middleware.Logging(logger)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestID(root)

	return root
}

// AdminRoutes registers the realm administration routes. Import and export
// routes are rate limited per client IP.
func AdminRoutes(cfg *config.Config, h *handler.Handler) *http.ServeMux {
	adminMux := http.NewServeMux()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limited := func(f http.HandlerFunc) http.Handler { return limiter.Limit(f) }

	const realm = "/api/v1/admin/realms/{realm}"

	// Users
	adminMux.HandleFunc("GET "+realm+"/users", h.SearchUsers)

	// Role selector
	adminMux.HandleFunc("GET "+realm+"/role-selector", h.GetRoleSelector)
	adminMux.HandleFunc("POST "+realm+"/provider-config/role", h.SelectProviderRole)

	// Partial import
	adminMux.Handle("POST "+realm+"/partial-import", limited(h.CreateImportSession))
	adminMux.HandleFunc("GET "+realm+"/partial-import/{session}", h.GetImportSession)
	adminMux.HandleFunc("PUT "+realm+"/partial-import/{session}", h.UpdateImportSession)
	adminMux.HandleFunc("DELETE "+realm+"/partial-import/{session}", h.DeleteImportSession)
	adminMux.HandleFunc("GET "+realm+"/partial-import/{session}/details", h.GetImportDetails)
	adminMux.Handle("PUT "+realm+"/partial-import/{session}/file", limited(h.UploadImportFile))
	adminMux.Handle("POST "+realm+"/partial-import/{session}/submit", limited(h.SubmitImport))
	adminMux.HandleFunc("POST "+realm+"/partial-import/{session}/reset", h.ResetImport)

	// Sections
	adminMux.HandleFunc("GET "+realm+"/sections", h.ListSections)
	adminMux.Handle("POST "+realm+"/sections/{section}/import", limited(h.ImportSection))
	adminMux.Handle("GET "+realm+"/sections/{section}/export/local", limited(h.LocalExport))
	adminMux.Handle("POST "+realm+"/sections/{section}/export/server", limited(h.ServerExport))

	return adminMux
}

// cors adds CORS headers for the frontend.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Notification, Content-Disposition")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
