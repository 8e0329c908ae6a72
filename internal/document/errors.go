package document

import "errors"

// Editing conditions. Intents that hit them degrade to no-ops; none of them
// leave a diagram partially modified.
var (
	ErrNotFound         = errors.New("shape not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrCycleRejected    = errors.New("group cycle rejected")
	ErrDuplicateID      = errors.New("duplicate shape id")
)
