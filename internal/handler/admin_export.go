package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialexport"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

// ListSections handles GET /api/v1/admin/realms/{realm}/sections
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	secs := h.Sections.All()
	out := make([]model.SectionInfo, 0, len(secs))
	for _, s := range secs {
		out = append(out, model.SectionInfo{
			Name:            s.Name,
			DisplayName:     s.DisplayName,
			PropertyName:    s.PropertyName,
			DefaultFileName: s.DefaultFileName(),
			SearchEnabled:   s.SearchEnabled,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// LocalExport handles GET /api/v1/admin/realms/{realm}/sections/{section}/export/local
// The response body is the export file. The success notification travels
// in the X-Notification header.
func (h *Handler) LocalExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}
	sec, ok := h.sectionParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var search *string
	if q.Has("search") {
		s := q.Get("search")
		search = &s
	}
	req := partialexport.Request{
		Realm:     realm,
		Section:   sec,
		Search:    h.resolveSearch(ctx, sec, search),
		FileName:  q.Get("fileName"),
		Condensed: queryBool(r, "condensed"),
	}

	file, n, err := partialexport.LocalExport(ctx, h.KC, req)
	if err != nil {
		h.writeExportError(w, r, sec, err, n)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("X-Notification", n.Message)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// ServerExport handles POST /api/v1/admin/realms/{realm}/sections/{section}/export/server
func (h *Handler) ServerExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}
	sec, ok := h.sectionParam(w, r)
	if !ok {
		return
	}

	var body model.ServerExportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			writeBodyError(w, err)
			return
		}
	}

	req := partialexport.Request{
		Realm:     realm,
		Section:   sec,
		Search:    h.resolveSearch(ctx, sec, body.Search),
		FileName:  body.FileName,
		Condensed: body.Condensed,
	}

	n, err := partialexport.ServerExport(ctx, h.Persister, req)
	if err != nil {
		h.writeExportError(w, r, sec, err, n)
		return
	}

	h.Logger.Info("server export written",
		zap.String("realm", realm),
		zap.String("section", sec.Name),
		zap.String("admin", username(ctx)),
	)
	writeNotification(w, http.StatusOK, "", n)
}

// resolveSearch returns the explicit search string, or the caller's latest
// user search when none was given.
func (h *Handler) resolveSearch(ctx context.Context, sec section.Section, explicit *string) string {
	if !sec.SearchEnabled {
		return ""
	}
	if explicit != nil {
		return *explicit
	}
	return h.Queries.Get(subject(ctx))
}

func (h *Handler) writeExportError(w http.ResponseWriter, r *http.Request, sec section.Section, err error, n model.Notification) {
	if partialexport.IsValidation(err) {
		writeNotification(w, http.StatusBadRequest, "INVALID_FILE_NAME", n)
		return
	}
	h.Logger.Error("export failed", zap.Error(err),
		zap.String("section", sec.Name),
		zap.String("request_id", middleware.GetRequestID(r.Context())))
	writeNotification(w, http.StatusBadGateway, "KEYCLOAK_ERROR", n)
}
