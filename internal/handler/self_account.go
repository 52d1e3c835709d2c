package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/account"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/toolbar"
)

func (h *Handler) caller(r *http.Request) account.Caller {
	return account.Caller{
		Token: middleware.GetToken(r.Context()),
		Realm: h.Config.AccountRealm,
	}
}

// GetAccount handles GET /api/v1/self/account
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	acct, err := account.NewAccountPage(h.KC, h.caller(r)).Load(ctx)
	if err != nil {
		h.Logger.Error("failed to load account", zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", model.FailureMessage(err, "failed to load account"))
		return
	}

	writeJSON(w, http.StatusOK, acct)
}

// UpdateAccount handles POST /api/v1/self/account
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.Account
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	acct, err := account.NewAccountPage(h.KC, h.caller(r)).Save(ctx, req)
	if err != nil {
		h.Logger.Error("failed to save account", zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", model.FailureMessage(err, "failed to save account"))
		return
	}

	h.Logger.Info("account updated", zap.String("username", acct.Username))
	writeJSON(w, http.StatusOK, acct)
}

// GetApplications handles GET /api/v1/self/applications
// Query parameters sortBy, filterBy, filter, desc and view drive the toolbar.
func (h *Handler) GetApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := account.NewApplicationsPage(h.KC, h.caller(r), h.Logger, h.Config.ResourceURL)
	if err := applyToolbar(page.Toolbar, r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_VIEW", err.Error())
		return
	}

	// A failure of one list still renders the other.
	if err := page.Load(ctx); err != nil {
		h.Logger.Warn("applications page partially loaded", zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)))
	}

	writeJSON(w, http.StatusOK, page.View())
}

// GetEvents handles GET /api/v1/self/events and POST /api/v1/self/events/refresh
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := account.NewEventsPage(h.KC, h.caller(r))
	if err := applyToolbar(page.Toolbar, r); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_VIEW", err.Error())
		return
	}

	if err := page.Refresh(ctx); err != nil {
		h.Logger.Error("failed to load events", zap.Error(err),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeError(w, http.StatusBadGateway, "KEYCLOAK_ERROR", model.FailureMessage(err, "failed to load events"))
		return
	}

	writeJSON(w, http.StatusOK, page.View())
}

// GetTopNav handles GET /api/v1/self/nav
func (h *Handler) GetTopNav(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nav := account.TopNav(account.NavConfig{
		IssuerURL:   h.Config.OIDCIssuerURL,
		ClientID:    h.Config.OIDCClientID,
		PublicURL:   h.Config.PublicURL,
		ResourceURL: h.Config.ResourceURL,
	}, q.Get("referrer"), q.Get("referrer_uri"))

	writeJSON(w, http.StatusOK, nav)
}

// applyToolbar sets toolbar state from query parameters. filterBy is
// applied before filter because changing the filter property clears the text.
func applyToolbar(tb *toolbar.Toolbar, r *http.Request) error {
	q := r.URL.Query()
	if v := q.Get("sortBy"); v != "" {
		tb.ChangeSortByProp(v)
	}
	if v := q.Get("filterBy"); v != "" {
		tb.ChangeFilterByProp(v)
	}
	tb.FilterText = q.Get("filter")
	if queryBool(r, "desc") {
		tb.ToggleSort()
	}
	if v := q.Get("view"); v != "" {
		return tb.ChangeView(v)
	}
	return nil
}
