package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/roleselector"
)

// GetRoleSelector handles GET /api/v1/admin/realms/{realm}/role-selector
// The optional client query parameter selects a client by internal id.
func (h *Handler) GetRoleSelector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}

	sel, err := roleselector.Open(ctx, h.KC, h.Logger, realm, map[string]string{}, "")
	if err != nil {
		h.Logger.Error("failed to open role selector", zap.Error(err), zap.String("realm", realm),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", "failed to load roles")
		return
	}

	if r.URL.Query().Has("client") {
		if err := sel.ChangeClientByID(ctx, r.URL.Query().Get("client")); err != nil {
			h.Logger.Error("failed to load client roles", zap.Error(err), zap.String("realm", realm),
				zap.String("request_id", middleware.GetRequestID(ctx)))
			writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", "failed to load client roles")
			return
		}
	}

	writeJSON(w, http.StatusOK, sel.View())
}

// SelectProviderRole handles POST /api/v1/admin/realms/{realm}/provider-config/role
// It writes the chosen realm or client role into the submitted provider
// configuration under configName and returns the updated configuration.
func (h *Handler) SelectProviderRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}

	var req model.RoleSelectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.ConfigName == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "configName is required")
		return
	}
	if !req.Cancel && (req.RealmRole == "") == (req.ClientRole == "") {
		writeError(w, http.StatusBadRequest, "INVALID_SELECTION", "exactly one of realmRole or clientRole is required")
		return
	}

	provider := roleselector.NewProviderConfig(h.KC, h.Logger, realm)
	sel, err := provider.OpenRoleSelector(ctx, req.ConfigName, req.Config)
	if err != nil {
		h.Logger.Error("failed to open role selector", zap.Error(err), zap.String("realm", realm),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", "failed to load roles")
		return
	}

	switch {
	case req.Cancel:
		sel.Cancel()
	case req.RealmRole != "":
		err = sel.SelectRealmRole(req.RealmRole)
	default:
		if req.ClientID != "" {
			if err := sel.ChangeClientByID(ctx, req.ClientID); err != nil {
				h.Logger.Error("failed to load client roles", zap.Error(err), zap.String("realm", realm),
					zap.String("request_id", middleware.GetRequestID(ctx)))
				writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", "failed to load client roles")
				return
			}
		}
		err = sel.SelectClientRole(req.ClientRole)
	}

	switch {
	case errors.Is(err, roleselector.ErrUnknownRole), errors.Is(err, roleselector.ErrNoClient):
		writeError(w, http.StatusBadRequest, "INVALID_SELECTION", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusConflict, "INVALID_STATE", err.Error())
		return
	}

	kind := "client"
	if req.Cancel {
		kind = "cancelled"
	} else if req.RealmRole != "" {
		kind = "realm"
	}

	h.Logger.Info("provider role selected",
		zap.String("realm", realm),
		zap.String("config_name", req.ConfigName),
		zap.String("selection", kind),
		zap.String("admin", username(ctx)),
	)

	writeJSON(w, http.StatusOK, model.RoleSelectionResponse{
		State:  string(sel.State()),
		Config: sel.Config(),
	})
}
