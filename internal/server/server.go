package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/handler"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialimport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/roleselector"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	kc         roleselector.RoleSource
	sessions   *partialimport.Store
	logger     *zap.Logger
	cancelFunc context.CancelFunc
}

// New creates and configures a new Server.
func New(cfg *config.Config, h *handler.Handler, kc roleselector.RoleSource, logger *zap.Logger) *Server {
	router := NewRouter(cfg, h, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	return &Server{
		httpServer: srv,
		cfg:        cfg,
		kc:         kc,
		sessions:   h.Sessions,
		logger:     logger,
	}
}

// Start begins listening and starts the periodic metrics collector.
func (s *Server) Start() error {
	// Start periodic gauge collector for Keycloak and session stats.
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelFunc = cancel
	go s.collectGaugeMetrics(ctx)

	s.logger.Info("starting realm-console server",
		zap.String("addr", s.httpServer.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	return s.httpServer.Shutdown(ctx)
}

// collectGaugeMetrics periodically fetches client/role counts from Keycloak
// and the number of live import sessions, and updates the Prometheus gauges.
func (s *Server) collectGaugeMetrics(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	// Collect once immediately at startup.
	s.updateGauges(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("stopping gauge metrics collector")
			return
		case <-ticker.C:
			s.updateGauges(ctx)
		}
	}
}

func (s *Server) updateGauges(ctx context.Context) {
	s.logger.Debug("collecting gauge metrics")

	realm := s.cfg.KeycloakRealm

	clients, err := s.kc.GetClients(ctx, realm)
	if err != nil {
		s.logger.Warn("failed to list clients for metrics", zap.Error(err))
	} else {
		metrics.RealmClientsTotal.Set(float64(len(clients)))
	}

	roles, err := s.kc.GetRealmRoles(ctx, realm)
	if err != nil {
		s.logger.Warn("failed to list roles for metrics", zap.Error(err))
	} else {
		metrics.RealmRolesTotal.Set(float64(len(roles)))
	}

	if s.sessions != nil {
		metrics.ImportSessionsActive.Set(float64(s.sessions.Len()))
	}

	s.logger.Debug("gauge metrics updated",
		zap.Int("clients", len(clients)),
		zap.Int("realm_roles", len(roles)),
	)
}
