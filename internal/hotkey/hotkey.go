// Package hotkey matches mouse button chords such as "Left+Right" against
// the button events of the captured pointer.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
)

// Button names accepted in a chord
const (
	Left   = "LEFT"
	Right  = "RIGHT"
	Middle = "MIDDLE"
)

var pressKinds = map[protocol.Kind]string{
	protocol.KindLeftClick:   Left,
	protocol.KindRightClick:  Right,
	protocol.KindMiddleClick: Middle,
}

var releaseKinds = map[protocol.Kind]string{
	protocol.KindLeftRelease:   Left,
	protocol.KindRightRelease:  Right,
	protocol.KindMiddleRelease: Middle,
}

var releaseFor = map[string]protocol.Kind{
	Left:   protocol.KindLeftRelease,
	Right:  protocol.KindRightRelease,
	Middle: protocol.KindMiddleRelease,
}

// Manager tracks pressed buttons and reports when a registered chord is
// complete.
type Manager struct {
	mu           sync.RWMutex
	chords       []*registeredChord
	currentState map[string]bool
}

type registeredChord struct {
	parts    []string
	original string
	callback func()
}

// NewManager creates a new chord manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// ParseChord splits a chord string such as "Left+Right" into button names.
func ParseChord(chord string) ([]string, error) {
	if strings.TrimSpace(chord) == "" {
		return nil, fmt.Errorf("empty chord")
	}
	parts := strings.Split(strings.ToUpper(chord), "+")
	seen := make(map[string]bool, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if _, ok := releaseFor[p]; !ok {
			return nil, fmt.Errorf("unknown button %q in chord %q", p, chord)
		}
		if seen[p] {
			return nil, fmt.Errorf("button %q repeated in chord %q", p, chord)
		}
		seen[p] = true
		parts[i] = p
	}
	return parts, nil
}

// Register adds a chord. callback may be nil; when set it runs in its own
// goroutine each time the chord completes.
func (m *Manager) Register(chord string, callback func()) error {
	parts, err := ParseChord(chord)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chords = append(m.chords, &registeredChord{
		parts:    parts,
		original: chord,
		callback: callback,
	})
	return nil
}

// Observe updates the pressed state from ev and reports whether ev is the
// press that completed a registered chord. Non-button events are ignored.
func (m *Manager) Observe(ev protocol.MouseEvent) bool {
	m.mu.Lock()
	if name, ok := releaseKinds[ev.Kind]; ok {
		delete(m.currentState, name)
		m.mu.Unlock()
		return false
	}
	name, ok := pressKinds[ev.Kind]
	if !ok {
		m.mu.Unlock()
		return false
	}
	m.currentState[name] = true
	m.mu.Unlock()

	return m.checkMatches(name)
}

func (m *Manager) checkMatches(pressed string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := false
	for _, c := range m.chords {
		if !contains(c.parts, pressed) {
			continue
		}
		match := true
		for _, part := range c.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}
		if match {
			log.Debugf("Hotkey: chord %s triggered", c.original)
			matched = true
			if c.callback != nil {
				go c.callback()
			}
		}
	}
	return matched
}

// Held returns release events for every button currently down, except
// those named in skip.
func (m *Manager) Held(skip ...string) []protocol.MouseEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []protocol.MouseEvent
	// fixed order keeps the output deterministic
	for _, name := range []string{Left, Right, Middle} {
		if m.currentState[name] && !contains(skip, name) {
			out = append(out, protocol.Button(releaseFor[name]))
		}
	}
	return out
}

// ButtonOf names the button a press or release event refers to.
func ButtonOf(ev protocol.MouseEvent) (string, bool) {
	if name, ok := pressKinds[ev.Kind]; ok {
		return name, true
	}
	name, ok := releaseKinds[ev.Kind]
	return name, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
