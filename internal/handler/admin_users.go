package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
)

// SearchUsers handles GET /api/v1/admin/realms/{realm}/users
// The search string is remembered as the caller's latest query so that a
// following users export can reuse it.
func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}

	search := r.URL.Query().Get("search")
	first := queryInt(r, "first", 0)
	max := queryInt(r, "max", 100)
	if max > 500 {
		max = 500
	}

	users, err := h.KC.SearchUsers(ctx, realm, search, first, max)
	if err != nil {
		h.Logger.Error("failed to search users", zap.Error(err), zap.String("realm", realm),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", "failed to search users")
		return
	}

	h.Queries.Set(subject(ctx), search)
	writeJSON(w, http.StatusOK, users)
}
