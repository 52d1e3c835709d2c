package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts all HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "realm_console_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// KeycloakRequestsTotal counts Keycloak API requests.
	KeycloakRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_keycloak_requests_total",
		Help: "Total number of Keycloak API requests",
	}, []string{"operation", "status"})

	// KeycloakErrorsTotal counts Keycloak API errors.
	KeycloakErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_keycloak_errors_total",
		Help: "Total number of Keycloak API errors",
	}, []string{"operation"})

	// VaultRequestsTotal counts Vault API requests.
	VaultRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_vault_requests_total",
		Help: "Total number of Vault API requests",
	}, []string{"operation", "status"})

	// VaultErrorsTotal counts Vault API errors.
	VaultErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_vault_errors_total",
		Help: "Total number of Vault API errors",
	}, []string{"operation"})

	// ImportsTotal counts submitted partial imports by policy and outcome.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_imports_total",
		Help: "Total number of partial import submissions",
	}, []string{"policy", "outcome"})

	// ImportedRecordsTotal counts records reported by Keycloak per action.
	ImportedRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_imported_records_total",
		Help: "Total number of records added, skipped or overwritten by partial imports",
	}, []string{"action"})

	// ExportsTotal counts partial exports by mode, section and outcome.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_exports_total",
		Help: "Total number of partial exports",
	}, []string{"mode", "section", "outcome"})

	// RoleSelectionsTotal counts role selector confirmations by kind.
	RoleSelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realm_console_role_selections_total",
		Help: "Total number of role selections written to provider configs",
	}, []string{"kind"})

	// ImportSessionsActive is a gauge of live partial import sessions.
	ImportSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realm_console_import_sessions_active",
		Help: "Number of partial import sessions held in memory",
	})

	// RealmClientsTotal is a gauge of clients in the service-account realm.
	RealmClientsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realm_console_realm_clients_total",
		Help: "Number of clients in the configured Keycloak realm",
	})

	// RealmRolesTotal is a gauge of realm roles in the service-account realm.
	RealmRolesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realm_console_realm_roles_total",
		Help: "Number of realm roles in the configured Keycloak realm",
	})
)
