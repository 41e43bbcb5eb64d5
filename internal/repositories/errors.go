package repositories

import "errors"

// Sentinel errors shared by all repositories. The interaction engine maps
// these onto its caller-facing taxonomy; handlers never see them directly.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("repositories: not found")

	// ErrConflict means a conditional update found the entity in the
	// opposite state (edge already present, like already set, request
	// already pending). Exactly one of two concurrent conflicting writers
	// receives it.
	ErrConflict = errors.New("repositories: conflicting state")

	// ErrInvalidID means a caller-supplied id is not a valid ObjectID
	// hex string. Malformed input, not a missing entity.
	ErrInvalidID = errors.New("repositories: invalid id")
)
