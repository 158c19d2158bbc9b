package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// CheckID rejects identifiers that are not UUIDs before they reach storage,
// so a malformed path or body id is a validation error rather than a driver failure.
func CheckID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid %s id %q", ErrValidation, kind, id)
	}
	return nil
}
