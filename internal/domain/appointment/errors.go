package appointment

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("appointment not found")

// ValidationError rejects a creation or transition before any state is
// mutated. Field names the specific violated attribute.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CollisionError reports an identifier that is already claimed. It is
// resolved internally by retrying with the next sequence value and only
// surfaces, as a ValidationError, when retries are exhausted.
type CollisionError struct {
	Value string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("identifier %q already in use", e.Value)
}
