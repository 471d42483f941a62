package identity

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced patient does not exist in the
// consulted repository. Callers must not default it away silently.
var ErrNotFound = errors.New("patient not found")

// ErrReferenced rejects a hard delete of a patient that appointments still
// reference. Such patients can only be deactivated.
var ErrReferenced = errors.New("patient is referenced by appointments")

// NormalizationError reports a single raw record that could not be
// interpreted. It is isolated at the batch level: the element is replaced
// with a marked placeholder and processing of the remainder continues.
type NormalizationError struct {
	Ordinal int
	Reason  string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalizing record %d: %s", e.Ordinal, e.Reason)
}
