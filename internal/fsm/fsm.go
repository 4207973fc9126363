// Package fsm defines the microphone recorder lifecycle.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateAcquiring State = "acquiring"
	StateRecording State = "recording"
)

const (
	EventStart   Event = "start"
	EventGranted Event = "granted"
	EventDenied  Event = "denied"
	EventStop    Event = "stop"
	EventReset   Event = "reset"
)

// Transition returns the recorder state reached by applying event to current.
// Reset is accepted from every known state.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateAcquiring, StateRecording:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	if event == EventReset {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateAcquiring, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAcquiring:
		switch event {
		case EventGranted:
			return StateRecording, nil
		case EventDenied:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		switch event {
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
