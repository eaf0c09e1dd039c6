package fetch

import "github.com/cockroachdb/errors"

// Reasons a document comes back Missing. They are logged, never returned.
var (
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	ErrBodyTooLarge     = errors.New("upstream body too large")
)
