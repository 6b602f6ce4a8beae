package scoring

import "errors"

// Sentinel errors for weight configuration.
var (
	ErrUnknownWeight = errors.New("unknown weight key")
	ErrInvalidWeight = errors.New("invalid weight")
)
