package hotkey

import (
	"testing"
	"time"

	"sharemouse/internal/protocol"
)

func TestParseChord(t *testing.T) {
	parts, err := ParseChord(" left + Right ")
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if len(parts) != 2 || parts[0] != Left || parts[1] != Right {
		t.Errorf("Expected [LEFT RIGHT], got %v", parts)
	}

	for _, bad := range []string{"", "Left+Thumb", "Left+left"} {
		if _, err := ParseChord(bad); err == nil {
			t.Errorf("Expected an error for %q", bad)
		}
	}
}

func TestObserveCompletesChord(t *testing.T) {
	m := NewManager()
	fired := make(chan struct{}, 1)
	if err := m.Register("Left+Right", func() { fired <- struct{}{} }); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	if m.Observe(protocol.Button(protocol.KindLeftClick)) {
		t.Error("Expected no match after Left alone")
	}
	if !m.Observe(protocol.Button(protocol.KindRightClick)) {
		t.Error("Expected a match after Left+Right")
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Error("Expected the callback to run")
	}

	// Releasing one button breaks the chord.
	m.Observe(protocol.Button(protocol.KindRightRelease))
	if m.Observe(protocol.Button(protocol.KindMiddleClick)) {
		t.Error("Expected no match for Left+Middle")
	}
	if m.Observe(protocol.Scroll(0, 1)) {
		t.Error("Expected scroll events to be ignored")
	}
}

func TestHeld(t *testing.T) {
	m := NewManager()
	m.Observe(protocol.Button(protocol.KindMiddleClick))
	m.Observe(protocol.Button(protocol.KindLeftClick))

	held := m.Held()
	if len(held) != 2 || held[0].Kind != protocol.KindLeftRelease || held[1].Kind != protocol.KindMiddleRelease {
		t.Errorf("Expected [LeftRelease MiddleRelease], got %v", held)
	}
	held = m.Held(Left)
	if len(held) != 1 || held[0].Kind != protocol.KindMiddleRelease {
		t.Errorf("Expected [MiddleRelease], got %v", held)
	}
}

func TestButtonOf(t *testing.T) {
	if name, ok := ButtonOf(protocol.Button(protocol.KindRightRelease)); !ok || name != Right {
		t.Errorf("Expected RIGHT, got %q (%v)", name, ok)
	}
	if _, ok := ButtonOf(protocol.Move(1, 2)); ok {
		t.Error("Expected Move to name no button")
	}
}
