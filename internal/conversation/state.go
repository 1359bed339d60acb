package conversation

import "errors"

// ErrInvariant marks violations of the coordinator's concurrency model:
// illegal state transitions, trigger status mismatches, interaction id
// regressions. These halt the loop; recovering silently would hide the
// bug that caused them.
var ErrInvariant = errors.New("coordinator invariant violated")

// State is the single active phase of the interaction loop.
type State string

const (
	StateSleep     State = "sleep"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
)

// validTransitions is the guarded transition table. A "stop" signal maps
// to <any> -> listening, which is why every state lists listening.
var validTransitions = map[State][]State{
	StateSleep:     {StateListening},
	StateListening: {StateListening, StateThinking, StateSleep},
	StateThinking:  {StateSpeaking, StateListening},
	StateSpeaking:  {StateListening},
}

func canTransition(from, to State) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
