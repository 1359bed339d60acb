package conversation

import "testing"

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to State }{
		{StateListening, StateThinking},
		{StateListening, StateSleep},
		{StateListening, StateListening},
		{StateThinking, StateSpeaking},
		{StateThinking, StateListening},
		{StateSpeaking, StateListening},
		{StateSleep, StateListening},
	}
	for _, c := range legal {
		if !canTransition(c.from, c.to) {
			t.Fatalf("canTransition(%s, %s) = false, want true", c.from, c.to)
		}
	}

	illegal := []struct{ from, to State }{
		{StateSleep, StateThinking},
		{StateSleep, StateSpeaking},
		{StateSleep, StateSleep},
		{StateListening, StateSpeaking},
		{StateThinking, StateThinking},
		{StateThinking, StateSleep},
		{StateSpeaking, StateSpeaking},
		{StateSpeaking, StateThinking},
		{StateSpeaking, StateSleep},
	}
	for _, c := range illegal {
		if canTransition(c.from, c.to) {
			t.Fatalf("canTransition(%s, %s) = true, want false", c.from, c.to)
		}
	}
}
