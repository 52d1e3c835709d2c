// Package partialimport implements the partial import workflow: load a realm
// export, choose categories and a collision policy, submit to Keycloak and
// summarise the outcome.
package partialimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

// Backend submits import payloads to Keycloak.
type Backend interface {
	PartialImport(ctx context.Context, realm string, payload map[string]any) (*model.ImportResult, error)
	ImportSection(ctx context.Context, realm, resource string, payload map[string]any) error
}

// Outcome is the notification and, on success, the server result of a submission.
type Outcome struct {
	Notification model.Notification
	Result       *model.ImportResult
}

// Workflow is the state of one partial import form.
type Workflow struct {
	doc     *Document
	enabled map[Category]bool
	policy  Policy
	changed bool
}

// NewWorkflow returns an empty workflow with the FAIL policy.
func NewWorkflow() *Workflow {
	return &Workflow{
		enabled: make(map[Category]bool),
		policy:  PolicyFail,
	}
}

// Load parses raw and replaces the working document. Every category present
// in the file is enabled. On error the workflow is left untouched.
func (w *Workflow) Load(raw []byte) error {
	doc, err := Parse(raw)
	if err != nil {
		return err
	}

	enabled := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		enabled[c] = doc.Present(c)
	}

	w.doc = doc
	w.enabled = enabled
	w.changed = true
	return nil
}

// Loaded reports whether a file has been loaded.
func (w *Workflow) Loaded() bool {
	return w.doc != nil
}

// Toggle enables or disables importing c.
func (w *Workflow) Toggle(c Category, on bool) error {
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}
	if w.doc == nil {
		return ErrNoFile
	}
	if on && !w.doc.Present(c) {
		return fmt.Errorf("%w: %s", ErrCategoryAbsent, c)
	}
	w.enabled[c] = on
	return nil
}

// ToggleAll applies every toggle of set, or none of them when any is invalid.
func (w *Workflow) ToggleAll(set map[string]bool) error {
	if w.doc == nil && len(set) > 0 {
		return ErrNoFile
	}
	parsed := make(map[Category]bool, len(set))
	for name, on := range set {
		c, err := ParseCategory(name)
		if err != nil {
			return err
		}
		if on && !w.doc.Present(c) {
			return fmt.Errorf("%w: %s", ErrCategoryAbsent, c)
		}
		parsed[c] = on
	}
	for c, on := range parsed {
		w.enabled[c] = on
	}
	return nil
}

// Enabled reports whether c will be imported.
func (w *Workflow) Enabled(c Category) bool {
	return w.enabled[c]
}

// Policy returns the collision policy.
func (w *Workflow) Policy() Policy {
	return w.policy
}

// SetPolicy sets the collision policy.
func (w *Workflow) SetPolicy(p Policy) {
	w.policy = p
}

// Skip reports whether existing records are skipped.
func (w *Workflow) Skip() bool {
	return w.policy.Skip()
}

// Overwrite reports whether existing records are overwritten.
func (w *Workflow) Overwrite() bool {
	return w.policy.Overwrite()
}

// SetSkip sets the skip flag. Setting it clears overwrite.
func (w *Workflow) SetSkip(on bool) {
	w.policy = w.policy.withSkip(on)
}

// SetOverwrite sets the overwrite flag. Setting it clears skip.
func (w *Workflow) SetOverwrite(on bool) {
	w.policy = w.policy.withOverwrite(on)
}

// NothingToImport reports whether every category toggle is off or absent.
func (w *Workflow) NothingToImport() bool {
	for _, c := range Categories {
		if w.enabled[c] {
			return false
		}
	}
	return true
}

// Payload builds the filtered document that would be submitted.
func (w *Workflow) Payload() (map[string]any, error) {
	if w.doc == nil {
		return nil, ErrNoFile
	}
	if w.NothingToImport() {
		return nil, ErrNothingToImport
	}
	return w.doc.Filtered(w.enabled, w.policy), nil
}

// Submit posts the filtered document to realm. Validation failures return
// before any request is issued. The workflow state is never changed.
func (w *Workflow) Submit(ctx context.Context, backend Backend, realm string) (Outcome, error) {
	payload, err := w.Payload()
	if err != nil {
		return Outcome{Notification: model.Failure(ValidationMessage(err))}, err
	}

	result, err := backend.PartialImport(ctx, realm, payload)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues(string(w.policy), "error").Inc()
		return Outcome{Notification: model.Failure(model.FailureMessage(err, FallbackMessage))}, err
	}

	metrics.ImportsTotal.WithLabelValues(string(w.policy), "success").Inc()
	metrics.ImportedRecordsTotal.WithLabelValues("added").Add(float64(result.Added))
	metrics.ImportedRecordsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.ImportedRecordsTotal.WithLabelValues("overwritten").Add(float64(result.Overwritten))

	return Outcome{
		Notification: model.Success(Summary(result, w.policy)),
		Result:       result,
	}, nil
}

// Reset discards every piece of state, as if the form was opened anew.
func (w *Workflow) Reset() {
	*w = *NewWorkflow()
}

// Details returns a copy of the working document.
func (w *Workflow) Details() (map[string]any, error) {
	if w.doc == nil {
		return nil, ErrNoFile
	}
	return w.doc.Fields(), nil
}

// Preview renders the workflow for the console.
func (w *Workflow) Preview(sessionID string) model.ImportPreview {
	p := model.ImportPreview{
		SessionID:  sessionID,
		Changed:    w.changed,
		Policy:     string(w.policy),
		Skip:       w.Skip(),
		Overwrite:  w.Overwrite(),
		Categories: make([]model.CategoryPreview, 0, len(Categories)),
	}
	if w.doc != nil {
		p.FileRealm = w.doc.RealmName()
		p.MultiRealm = w.doc.MultiRealm
	}
	for _, c := range Categories {
		cp := model.CategoryPreview{Category: string(c), Enabled: w.enabled[c]}
		if w.doc != nil {
			cp.Present = w.doc.Present(c)
			cp.Count = w.doc.Count(c)
		}
		p.Categories = append(p.Categories, cp)
	}
	return p
}

// Summary formats the success message for result under policy. Skipped and
// overwritten counts are only mentioned when the matching policy was active.
func Summary(result *model.ImportResult, policy Policy) string {
	parts := []string{fmt.Sprintf("%d records added.", result.Added)}
	switch policy {
	case PolicySkip:
		parts = append(parts, fmt.Sprintf("%d records skipped.", result.Skipped))
	case PolicyOverwrite:
		parts = append(parts, fmt.Sprintf("%d records overwritten.", result.Overwritten))
	}
	return strings.Join(parts, " ")
}

// ValidationMessage is the user-facing text for a local validation error.
func ValidationMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return model.UpperFirst(err.Error())
	default:
		return FallbackMessage
	}
}
