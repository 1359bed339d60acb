package audio

import "testing"

func TestTapFansOutCopies(t *testing.T) {
	tap := NewTap()
	a, cancelA := tap.Subscribe(4)
	b, cancelB := tap.Subscribe(4)
	defer cancelA()
	defer cancelB()

	tap.Publish([]int16{1, 2, 3})

	fa := <-a
	fb := <-b
	if len(fa) != 3 || len(fb) != 3 {
		t.Fatalf("expected 3 samples each, got %d and %d", len(fa), len(fb))
	}

	// Subscribers own their frames; mutating one must not leak.
	fa[0] = 99
	if fb[0] != 1 {
		t.Fatalf("frame shared between subscribers: %v", fb)
	}
}

func TestTapDropsWhenSubscriberFull(t *testing.T) {
	tap := NewTap()
	ch, cancel := tap.Subscribe(1)
	defer cancel()

	tap.Publish([]int16{1})
	tap.Publish([]int16{2})
	tap.Publish([]int16{3})

	first := <-ch
	if first[0] != 1 {
		t.Fatalf("expected first frame, got %v", first)
	}
	select {
	case extra := <-ch:
		if extra[0] != 2 {
			t.Fatalf("expected second frame or nothing, got %v", extra)
		}
	default:
	}
}

func TestTapUnsubscribeClosesChannel(t *testing.T) {
	tap := NewTap()
	ch, cancel := tap.Subscribe(1)
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after unsubscribe")
	}
	if n := tap.Subscribers(); n != 0 {
		t.Fatalf("expected 0 subscribers, got %d", n)
	}

	// Publishing with no subscribers must not panic.
	tap.Publish([]int16{1})
	cancel() // double cancel is a no-op
}

func TestTapClose(t *testing.T) {
	tap := NewTap()
	ch, _ := tap.Subscribe(1)
	tap.Close()

	if _, ok := <-ch; ok {
		t.Fatal("expected subscriber channel closed by Close")
	}
	tap.Publish([]int16{1}) // no-op after close

	late, cancel := tap.Subscribe(1)
	defer cancel()
	if _, ok := <-late; ok {
		t.Fatal("expected closed channel when subscribing after Close")
	}
}

func TestRMS(t *testing.T) {
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %v, want 0", got)
	}
	if got := RMS([]int16{0, 0, 0}); got != 0 {
		t.Fatalf("RMS(zeros) = %v, want 0", got)
	}
	if got := RMS([]int16{1000, 1000, 1000, 1000}); got != 1000 {
		t.Fatalf("RMS(constant 1000) = %v, want 1000", got)
	}
	if got := RMS([]int16{3, -4}); got < 3.53 || got > 3.54 {
		t.Fatalf("RMS(3,-4) = %v, want ~3.5355", got)
	}
}
