package domain

import "errors"

var ErrInvalidTransition = errors.New("invalid_transition")

// State is the pipeline position of one generation attempt.
type State string

const (
	StateIdle         State = "idle"
	StateDescribing   State = "describing"
	StateSynthesizing State = "synthesizing"
	StatePersisting   State = "persisting"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// transitions is the full edge set. Terminal states have no outgoing
// edges; every non-terminal state may fail.
var transitions = map[State][]State{
	StateIdle:         {StateDescribing},
	StateDescribing:   {StateSynthesizing, StateFailed},
	StateSynthesizing: {StatePersisting, StateFailed},
	StatePersisting:   {StateSucceeded, StateFailed},
	StateSucceeded:    {},
	StateFailed:       {},
}

func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Transition returns next when the edge s->next exists and
// ErrInvalidTransition otherwise.
func Transition(s, next State) (State, error) {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, ErrInvalidTransition
}
