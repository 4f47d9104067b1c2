package game

import "errors"

// Error taxonomy surfaced to the REST and WebSocket layers. Handlers map
// these to 404/403/409; anything else is a 500.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)
