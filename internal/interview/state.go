package interview

import "errors"

// State is the lifecycle position of a session.
type State int

const (
	StateIdle State = iota
	StateActive
	StateEnded
	StateReported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	case StateReported:
		return "reported"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrConfigRequired means Start was called before a practice
	// configuration was collected.
	ErrConfigRequired = errors.New("practice configuration required")
	// ErrNotActive is returned by operations that need a running session.
	ErrNotActive = errors.New("no active session")
	// ErrInvalidTransition is returned when the requested state change is
	// not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrBusy means another completion call for this session is in flight.
	ErrBusy = errors.New("session is busy")
	// ErrResponseDiscarded means a completion finished after the session
	// left the state it was issued in; the transcript was not touched.
	ErrResponseDiscarded = errors.New("response arrived after session changed; discarded")
)
