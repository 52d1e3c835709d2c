// Package partialexport exports one section of a realm either to the caller
// as a downloadable file or to storage next to the server.
package partialexport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/metrics"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/section"
)

// FallbackMessage is shown when a failed export carries no server message.
const FallbackMessage = "Unexpected error during export"

const (
	invalidFileNameMessage = "Invalid export file name"
	invalidRealmMessage    = "Invalid realm name"
)

var (
	// ErrInvalidFileName is returned for file names that would escape the
	// export directory.
	ErrInvalidFileName = errors.New("invalid export file name")
	// ErrInvalidRealm is returned for realm names that are not a single path
	// segment.
	ErrInvalidRealm = errors.New("invalid realm name")
	// ErrUnexpectedPayload is returned when Keycloak answers with a payload
	// of the wrong JSON shape for the section.
	ErrUnexpectedPayload = errors.New("unexpected export payload")
)

// IsValidation reports whether err was detected before contacting Keycloak.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidFileName) || errors.Is(err, ErrInvalidRealm)
}

func validationMessage(err error) string {
	if errors.Is(err, ErrInvalidRealm) {
		return invalidRealmMessage
	}
	return invalidFileNameMessage
}

// LocalBackend fetches export payloads from Keycloak.
type LocalBackend interface {
	LocalExport(ctx context.Context, realm, resource, search string) (json.RawMessage, error)
}

// Request describes one export.
type Request struct {
	Realm     string
	Section   section.Section
	Search    string
	FileName  string
	Condensed bool
}

// Normalize fills the default file name and drops the search string of
// sections that do not support one.
func (r Request) Normalize() (Request, error) {
	if err := model.ValidatePathSegment(r.Realm); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidRealm, err)
	}
	r.FileName = strings.TrimSuffix(strings.TrimSpace(r.FileName), ".json")
	if r.FileName == "" {
		r.FileName = r.Section.DefaultFileName()
	}
	if err := model.ValidatePathSegment(r.FileName); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidFileName, err)
	}
	if !r.Section.SearchEnabled {
		r.Search = ""
	}
	return r, nil
}

// File is a rendered export ready to be downloaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// LocalExport fetches the section payload and renders it as a JSON file
// wrapped under the section property.
func LocalExport(ctx context.Context, backend LocalBackend, req Request) (*File, model.Notification, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, model.Failure(validationMessage(err)), err
	}

	data, err := render(ctx, backend, req)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("local", req.Section.Name, "error").Inc()
		return nil, model.Failure(model.FailureMessage(err, FallbackMessage)), err
	}

	metrics.ExportsTotal.WithLabelValues("local", req.Section.Name, "success").Inc()
	file := &File{
		Name:        req.FileName + ".json",
		ContentType: "application/json",
		Data:        data,
	}
	return file, model.Success(fmt.Sprintf("The %s have been exported.", req.Section.DisplayName)), nil
}

// ServerExport asks p to persist the export next to the server.
func ServerExport(ctx context.Context, p Persister, req Request) (model.Notification, error) {
	req, err := req.Normalize()
	if err != nil {
		return model.Failure(validationMessage(err)), err
	}

	if err := p.Persist(ctx, req); err != nil {
		metrics.ExportsTotal.WithLabelValues("server", req.Section.Name, "error").Inc()
		return model.Failure(model.FailureMessage(err, FallbackMessage)), err
	}

	metrics.ExportsTotal.WithLabelValues("server", req.Section.Name, "success").Inc()
	return model.Success(req.Section.Title() + " saved on the server."), nil
}

// render fetches and wraps the section payload as {property: payload}.
func render(ctx context.Context, backend LocalBackend, req Request) ([]byte, error) {
	raw, err := backend.LocalExport(ctx, req.Realm, req.Section.ResourceName, req.Search)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", req.Section.Name, err)
	}
	if err := checkShape(raw, req.Section.Array); err != nil {
		return nil, err
	}

	wrapped := map[string]json.RawMessage{req.Section.PropertyName: raw}
	if req.Condensed {
		return json.Marshal(wrapped)
	}
	return json.MarshalIndent(wrapped, "", "  ")
}

func checkShape(raw json.RawMessage, array bool) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return fmt.Errorf("%w: empty body", ErrUnexpectedPayload)
	}
	switch {
	case array && trimmed[0] != '[':
		return fmt.Errorf("%w: expected array", ErrUnexpectedPayload)
	case !array && trimmed[0] != '{':
		return fmt.Errorf("%w: expected object", ErrUnexpectedPayload)
	}
	return nil
}
