package chat

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of an assistant session.
type State int

const (
	StateClosed State = iota
	StateGreeting
	StateAwaitingResponse
	StateIdle
	StateError
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateGreeting:
		return "greeting"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateIdle:
		return "idle"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsOpen reports whether the modal is visible in this state.
func (s State) IsOpen() bool {
	return s != StateClosed
}

// Event drives a state transition.
type Event int

const (
	EventOpen Event = iota
	EventSubmit
	EventReply
	EventFail
	EventReset
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventOpen:
		return "open"
	case EventSubmit:
		return "submit"
	case EventReply:
		return "reply"
	case EventFail:
		return "fail"
	case EventReset:
		return "reset"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// ErrInvalidTransition is returned when an event is not accepted in a state.
var ErrInvalidTransition = errors.New("invalid session transition")

// Transition is the session's state machine. It is pure so transitions can be
// tested without a renderer or network.
func Transition(from State, ev Event) (State, error) {
	switch ev {
	case EventOpen:
		return StateGreeting, nil
	case EventClose:
		return StateClosed, nil
	case EventReset:
		if from.IsOpen() {
			return StateGreeting, nil
		}
	case EventSubmit:
		if from.IsOpen() {
			return StateAwaitingResponse, nil
		}
	case EventReply:
		if from == StateAwaitingResponse {
			return StateIdle, nil
		}
	case EventFail:
		if from == StateAwaitingResponse {
			return StateError, nil
		}
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
}
