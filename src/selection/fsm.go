// Package selection implements the drag-to-select rectangle state machine.
package selection

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateDrawing   State = "drawing"
	StateCommitted State = "committed"
	StateCancelled State = "cancelled"
)

const (
	EventPointerDown Event = "pointer-down"
	EventPointerMove Event = "pointer-move"
	EventCommit      Event = "commit"
	EventCancel      Event = "cancel"
	EventReset       Event = "reset"
)

// Transition returns the next state for event, or an error when the event is
// not accepted in the current state.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventPointerDown:
			return StateDrawing, nil
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDrawing:
		switch event {
		case EventPointerMove:
			return StateDrawing, nil
		case EventCommit:
			return StateCommitted, nil
		case EventCancel:
			return StateCancelled, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCommitted, StateCancelled:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
