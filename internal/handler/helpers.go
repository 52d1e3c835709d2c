package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/account"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/config"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialexport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialimport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/querystore"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/roleselector"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

// Keycloak is everything the handlers need from the Keycloak client.
type Keycloak interface {
	roleselector.RoleSource
	partialimport.Backend
	partialexport.LocalBackend
	account.Backend
	SearchUsers(ctx context.Context, realm, search string, first, max int) ([]model.UserSummary, error)
	Healthy(ctx context.Context) error
}

// HealthChecker is a dependency probed by the readiness endpoint.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Handler holds shared dependencies injected into all route handlers.
type Handler struct {
	Config    *config.Config
	KC        Keycloak
	Vault     HealthChecker
	Sessions  *partialimport.Store
	Queries   *querystore.Store
	Sections  *section.Registry
	Persister partialexport.Persister
	Logger    *zap.Logger
}

// NewHandler creates a Handler with all dependencies. vc may be nil when the
// Keycloak secret does not come from Vault.
func NewHandler(
	cfg *config.Config,
	kc Keycloak,
	vc HealthChecker,
	sessions *partialimport.Store,
	queries *querystore.Store,
	sections *section.Registry,
	persister partialexport.Persister,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Config:    cfg,
		KC:        kc,
		Vault:     vc,
		Sessions:  sessions,
		Queries:   queries,
		Sections:  sections,
		Persister: persister,
		Logger:    logger.Named("handler"),
	}
}

const maxJSONBody = 1 << 20

// decodeJSON reads and decodes a JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

// decodeJSONLimit decodes at most limit bytes of body into v. A longer body
// fails with *http.MaxBytesError instead of being cut short.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// writeBodyError answers a failed decodeJSON: 413 when the body was too
// large, otherwise 400 INVALID_JSON.
func writeBodyError(w http.ResponseWriter, err error) {
	if writeTooLarge(w, err, "BODY_TOO_LARGE", "request body") {
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
}

// writeTooLarge writes a 413 and reports true when err comes from a
// MaxBytesReader.
func writeTooLarge(w http.ResponseWriter, err error, code, what string) bool {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, code,
		fmt.Sprintf("%s exceeds %d bytes", what, tooLarge.Limit))
	return true
}

// pathParam extracts a path parameter from the URL.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// queryInt reads an integer query parameter with a default.
func queryInt(r *http.Request, name string, defaultVal int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	model.WriteJSON(w, status, v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	model.WriteError(w, status, code, message)
}

// writeNotification writes a notification-only response.
func writeNotification(w http.ResponseWriter, status int, code string, n model.Notification) {
	writeJSON(w, status, model.NotificationResponse{Notification: n, Code: code})
}

// subject returns the OIDC subject of the caller, or "".
func subject(ctx context.Context) string {
	if c := middleware.GetClaims(ctx); c != nil {
		return c.Subject
	}
	return ""
}

// username returns the preferred username of the caller, or "".
func username(ctx context.Context) string {
	if c := middleware.GetClaims(ctx); c != nil {
		return c.PreferredUsername
	}
	return ""
}

// realmParam returns the {realm} path value, writing a 400 when it is empty
// or not a single path segment.
func realmParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	realm := pathParam(r, "realm")
	if realm == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAM", "realm is required")
		return "", false
	}
	if err := model.ValidatePathSegment(realm); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REALM", err.Error())
		return "", false
	}
	return realm, true
}

// sectionParam resolves the {section} path value, writing a 404 when it is
// not configured.
func (h *Handler) sectionParam(w http.ResponseWriter, r *http.Request) (section.Section, bool) {
	sec, err := h.Sections.Lookup(pathParam(r, "section"))
	if errors.Is(err, section.ErrUnknownSection) {
		writeError(w, http.StatusNotFound, "UNKNOWN_SECTION", err.Error())
		return section.Section{}, false
	}
	return sec, err == nil
}
