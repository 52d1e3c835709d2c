package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/middleware"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/partialimport"
)

// CreateImportSession handles POST /api/v1/admin/realms/{realm}/partial-import
// The body is the realm export file, either raw JSON or a multipart form
// with a "file" field.
func (h *Handler) CreateImportSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}

	raw, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	wf := partialimport.NewWorkflow()
	if err := wf.Load(raw); err != nil {
		writeNotification(w, http.StatusBadRequest, "INVALID_FILE", model.Failure(partialimport.ValidationMessage(err)))
		return
	}

	sess := h.Sessions.Create(subject(ctx), realm, wf)

	h.Logger.Info("import session created",
		zap.String("session_id", sess.ID),
		zap.String("realm", realm),
		zap.String("file_realm", wf.Preview("").FileRealm),
		zap.String("admin", username(ctx)),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	writeJSON(w, http.StatusCreated, wf.Preview(sess.ID))
}

// GetImportSession handles GET /api/v1/admin/realms/{realm}/partial-import/{session}
func (h *Handler) GetImportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	writeJSON(w, http.StatusOK, sess.Workflow.Preview(sess.ID))
}

// GetImportDetails handles GET /api/v1/admin/realms/{realm}/partial-import/{session}/details
func (h *Handler) GetImportDetails(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	details, err := sess.Workflow.Details()
	if err != nil {
		writeNotification(w, http.StatusBadRequest, "NO_FILE", model.Failure(partialimport.ValidationMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// UpdateImportSession handles PUT /api/v1/admin/realms/{realm}/partial-import/{session}
// It changes category toggles and the collision policy. Invalid input
// leaves the session untouched.
func (h *Handler) UpdateImportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}

	var req model.ImportOptionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Skip != nil && req.Overwrite != nil && *req.Skip && *req.Overwrite {
		writeError(w, http.StatusBadRequest, "INVALID_POLICY", "skip and overwrite are mutually exclusive")
		return
	}

	var policy *partialimport.Policy
	if req.Policy != nil {
		p, err := partialimport.ParsePolicy(*req.Policy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_POLICY", err.Error())
			return
		}
		policy = &p
	}

	sess.Lock()
	defer sess.Unlock()
	wf := sess.Workflow

	if err := wf.ToggleAll(req.Toggles); err != nil {
		writeNotification(w, http.StatusBadRequest, "INVALID_TOGGLE", model.Failure(partialimport.ValidationMessage(err)))
		return
	}
	if policy != nil {
		wf.SetPolicy(*policy)
	}
	if req.Skip != nil {
		wf.SetSkip(*req.Skip)
	}
	if req.Overwrite != nil {
		wf.SetOverwrite(*req.Overwrite)
	}

	writeJSON(w, http.StatusOK, wf.Preview(sess.ID))
}

// UploadImportFile handles PUT /api/v1/admin/realms/{realm}/partial-import/{session}/file
// It replaces the working document of an existing session, typically after
// a reset.
func (h *Handler) UploadImportFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}

	raw, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	sess.Lock()
	defer sess.Unlock()

	if err := sess.Workflow.Load(raw); err != nil {
		writeNotification(w, http.StatusBadRequest, "INVALID_FILE", model.Failure(partialimport.ValidationMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, sess.Workflow.Preview(sess.ID))
}

// SubmitImport handles POST /api/v1/admin/realms/{realm}/partial-import/{session}/submit
func (h *Handler) SubmitImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	out, err := sess.Workflow.Submit(ctx, h.KC, sess.Realm)
	resp := model.ImportResponse{Notification: out.Notification, Result: out.Result}

	switch {
	case partialimport.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, resp)
		return
	case err != nil:
		h.Logger.Error("partial import failed", zap.Error(err),
			zap.String("realm", sess.Realm),
			zap.String("session_id", sess.ID),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	h.Logger.Info("partial import submitted",
		zap.String("realm", sess.Realm),
		zap.String("session_id", sess.ID),
		zap.String("policy", string(sess.Workflow.Policy())),
		zap.Int("added", out.Result.Added),
		zap.Int("skipped", out.Result.Skipped),
		zap.Int("overwritten", out.Result.Overwritten),
		zap.String("admin", username(ctx)),
	)
	writeJSON(w, http.StatusOK, resp)
}

// ResetImport handles POST /api/v1/admin/realms/{realm}/partial-import/{session}/reset
func (h *Handler) ResetImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	sess.Workflow.Reset()
	writeJSON(w, http.StatusOK, sess.Workflow.Preview(sess.ID))
}

// DeleteImportSession handles DELETE /api/v1/admin/realms/{realm}/partial-import/{session}
func (h *Handler) DeleteImportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.importSession(w, r)
	if !ok {
		return
	}
	h.Sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ImportSection handles POST /api/v1/admin/realms/{realm}/sections/{section}/import
func (h *Handler) ImportSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	realm, ok := realmParam(w, r)
	if !ok {
		return
	}
	sec, ok := h.sectionParam(w, r)
	if !ok {
		return
	}

	var req model.SectionImportRequest
	if err := decodeJSONLimit(w, r, &req, h.Config.MaxUploadBytes); err != nil {
		if writeTooLarge(w, err, "FILE_TOO_LARGE", "import file") {
			return
		}
		writeNotification(w, http.StatusBadRequest, "INVALID_FILE",
			model.Failure(partialimport.ValidationMessage(partialimport.ErrMalformedFile)))
		return
	}
	policy, err := partialimport.ParsePolicy(req.Policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_POLICY", err.Error())
		return
	}

	n, err := partialimport.ImportSection(ctx, h.KC, realm, sec, req.Document, policy)
	switch {
	case partialimport.IsValidation(err):
		writeNotification(w, http.StatusBadRequest, "NOTHING_TO_IMPORT", n)
		return
	case err != nil:
		h.Logger.Error("section import failed", zap.Error(err),
			zap.String("realm", realm),
			zap.String("section", sec.Name),
			zap.String("request_id", middleware.GetRequestID(ctx)))
		writeNotification(w, http.StatusBadGateway, "KEYCLOAK_ERROR", n)
		return
	}

	h.Logger.Info("section imported",
		zap.String("realm", realm),
		zap.String("section", sec.Name),
		zap.String("admin", username(ctx)),
	)
	writeNotification(w, http.StatusOK, "", n)
}

// importSession resolves {session} for the caller and {realm}, writing a 404
// when it does not exist, has expired or belongs to someone else.
func (h *Handler) importSession(w http.ResponseWriter, r *http.Request) (*partialimport.Session, bool) {
	realm, ok := realmParam(w, r)
	if !ok {
		return nil, false
	}
	sess, ok := h.Sessions.Get(pathParam(r, "session"), subject(r.Context()), realm)
	if !ok {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "import session not found")
		return nil, false
	}
	return sess, true
}

// readUpload returns the uploaded file, writing the error response itself.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	defer func() { _ = r.Body.Close() }()

	raw, err := uploadBody(r)
	switch {
	case writeTooLarge(w, err, "FILE_TOO_LARGE", "import file"):
		return nil, false
	case err != nil:
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return nil, false
	case len(raw) == 0:
		writeNotification(w, http.StatusBadRequest, "NO_FILE", model.Failure(partialimport.ValidationMessage(partialimport.ErrNoFile)))
		return nil, false
	}
	return raw, true
}

func uploadBody(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("reading form file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
