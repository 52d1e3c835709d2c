package partialimport

import "errors"

var (
	// ErrMalformedFile is returned when the uploaded text is not JSON.
	ErrMalformedFile = errors.New("unable to parse import file")
	// ErrNotRealm is returned when the JSON is not a realm representation.
	ErrNotRealm = errors.New("file does not contain a realm representation")
	// ErrNoFile is returned when the workflow has no file loaded.
	ErrNoFile = errors.New("no import file loaded")
	// ErrNothingToImport is returned when every category toggle is off.
	ErrNothingToImport = errors.New("nothing to import")
	// ErrUnknownCategory is returned for a toggle name that is not a category.
	ErrUnknownCategory = errors.New("unknown import category")
	// ErrCategoryAbsent is returned when enabling a category the file lacks.
	ErrCategoryAbsent = errors.New("category is not present in the file")
	// ErrInvalidPolicy is returned for an unrecognised collision policy.
	ErrInvalidPolicy = errors.New("invalid collision policy")
)

// FallbackMessage is shown when a failed import carries no server message.
const FallbackMessage = "Unexpected error during import"

// IsValidation reports whether err is a local validation error, one that
// was detected before any request reached Keycloak.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrMalformedFile, ErrNotRealm, ErrNoFile, ErrNothingToImport,
		ErrUnknownCategory, ErrCategoryAbsent, ErrInvalidPolicy,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
