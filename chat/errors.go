package chat

import "errors"

// Sentinel errors for every way an event or store operation can be rejected.
// Handlers compare with errors.Is so store implementations may wrap them
// with extra context. Only ErrAuthenticationFailed is fatal to a connection;
// everything else rejects the single offending event and leaves the
// connection open.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("not found")
	ErrAccessDenied         = errors.New("access denied")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAlreadyMember        = errors.New("already a member")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// userMessage converts an event-handling failure into the message carried by
// the error event sent back to the client. Internal detail never leaks; an
// unrecognized error is reported generically.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Room not found"
	case errors.Is(err, ErrAccessDenied):
		return "Access denied"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid message"
	case errors.Is(err, ErrAlreadyMember):
		return "Already a member of this room"
	case errors.Is(err, ErrStoreUnavailable):
		return "Temporary server error, please retry"
	default:
		return "Request failed"
	}
}
