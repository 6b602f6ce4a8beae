package ingestion

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrInvalidInput   = errors.New("invalid ingestion input")
	ErrEntityNotFound = errors.New("entity not found")
	ErrDuplicateEvent = errors.New("event already recorded")
)
