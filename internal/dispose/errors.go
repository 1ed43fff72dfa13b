package dispose

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an entry that is gone, usually because an earlier
	// run already processed it.
	ErrNotFound = errors.New("not found (already processed)")

	// ErrConfirmationDeclined is returned when permanent deletion is chosen
	// without the confirmation token.
	ErrConfirmationDeclined = errors.New("permanent deletion not confirmed")
)

// RaceConditionError reports an entry that changed between scan and
// disposition.
type RaceConditionError struct {
	Path   string
	Reason string
}

func (e *RaceConditionError) Error() string {
	return fmt.Sprintf("%s: %s since scan", e.Path, e.Reason)
}
