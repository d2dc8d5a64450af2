package types

import "errors"

// Error kinds shared by graph operations and storage backends. Callers
// discriminate with errors.Is; wrapped messages carry the operation and the
// offending key.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when persisted data violates a uniqueness
	// invariant, such as two records sharing an entity name.
	ErrDuplicate = errors.New("duplicate record")

	// ErrStorage is returned when the backing store cannot be read or
	// written.
	ErrStorage = errors.New("storage failure")

	// ErrFormat is returned when a persisted record cannot be decoded into
	// either an entity or a relation.
	ErrFormat = errors.New("malformed record")
)

// IsValidation reports whether err is one of the input validation errors,
// as opposed to a lookup or storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrEmptyEntityType) ||
		errors.Is(err, ErrEmptyFromEntity) ||
		errors.Is(err, ErrEmptyToEntity) ||
		errors.Is(err, ErrEmptyRelationType)
}
