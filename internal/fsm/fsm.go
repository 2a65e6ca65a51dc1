// Package fsm models the dictation session lifecycle as a pure state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

const (
	EventPause  Event = "pause"
	EventResume Event = "resume"
	EventStop   Event = "stop"
)

// Transition applies one event to a state. Running is the initial state,
// Stopped is terminal. Stop is accepted from every live state.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateRunning:
		switch event {
		case EventPause:
			return StatePaused, nil
		case EventStop:
			return StateStopped, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePaused:
		switch event {
		case EventResume:
			return StateRunning, nil
		case EventStop:
			return StateStopped, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStopped:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
