// Package tray shows which machine owns the pointer in the system tray,
// using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"sharemouse/internal/cursor"
)

// Tray manages the tray icon and its small menu: a disabled status line and
// a Quit item.
type Tray struct {
	tooltip string
	onQuit  func()

	mu      sync.Mutex
	side    cursor.Side
	status  *systray.MenuItem
	ready   bool
	stopped bool

	quitCh chan struct{}
}

// New creates a tray. onQuit runs when the user picks Quit.
func New(tooltip string, onQuit func()) *Tray {
	return &Tray{
		tooltip: tooltip,
		onQuit:  onQuit,
		quitCh:  make(chan struct{}),
	}
}

// Run starts the tray event loop (blocks). It must be called from the main
// goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

func (t *Tray) setupMenu() {
	systray.SetTooltip(t.tooltip)

	status := systray.AddMenuItem("", "Current pointer owner")
	status.Disable()
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Stop sharing the pointer")

	t.mu.Lock()
	t.status = status
	t.ready = true
	side := t.side
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		systray.Quit()
		return
	}
	t.render(side)

	go func() {
		select {
		case <-quit.ClickedCh:
			if t.onQuit != nil {
				t.onQuit()
			}
		case <-t.quitCh:
		}
	}()
}

func (t *Tray) onExit() {
	close(t.quitCh)
}

// SetOwner updates the icon and status line. Safe to call before Run.
func (t *Tray) SetOwner(side cursor.Side) {
	t.mu.Lock()
	t.side = side
	ready := t.ready
	t.mu.Unlock()
	if ready {
		t.render(side)
	}
}

func (t *Tray) render(side cursor.Side) {
	systray.SetTitle(title(side))
	systray.SetIcon(iconFor(side))
	t.mu.Lock()
	status := t.status
	t.mu.Unlock()
	if status != nil {
		status.SetTitle(label(side))
	}
}

// Stop stops the tray. A Stop that arrives before the tray is ready takes
// effect as soon as it is.
func (t *Tray) Stop() {
	t.mu.Lock()
	t.stopped = true
	ready := t.ready
	t.mu.Unlock()
	if ready {
		systray.Quit()
	}
}

func title(side cursor.Side) string {
	if side == cursor.Remote {
		return "SM ▶"
	}
	return "SM"
}

func label(side cursor.Side) string {
	if side == cursor.Remote {
		return "Pointer: remote machine"
	}
	return "Pointer: this machine"
}

// pixel colours, BGRA
var (
	localColor  = [4]byte{0x50, 0xAF, 0x4C, 0xFF} // green
	remoteColor = [4]byte{0xF3, 0x96, 0x21, 0xFF} // blue
)

// iconFor returns a solid 16x16 32-bit ICO tinted for side
func iconFor(side cursor.Side) []byte {
	color := localColor
	if side == cursor.Remote {
		color = remoteColor
	}

	icon := make([]byte, 1118)
	// ICO Header
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Icon Directory
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00, // Size: 1024 (pixels) + 40 (header) + 32 (mask) = 1096 bytes
		0x16, 0x00, 0x00, 0x00, // Offset
	})
	// DIB Header
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00, // Size
		0x10, 0x00, 0x00, 0x00, // Width
		0x20, 0x00, 0x00, 0x00, // Height (16 * 2 for icon)
		0x01, 0x00, // Planes
		0x20, 0x00, // BPP
		0x00, 0x00, 0x00, 0x00, // Compression
		0x00, 0x04, 0x00, 0x00, // Image Size
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	})
	// Pixels; the AND mask after them stays 0 (opaque)
	for i := 62; i < 62+1024; i += 4 {
		copy(icon[i:i+4], color[:])
	}
	return icon
}
