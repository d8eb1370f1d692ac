// Package osinput reads, warps and synthesizes the real OS pointer through
// robotgo. It is the only package that needs cgo.
package osinput

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-vgo/robotgo"

	"sharemouse/internal/input"
	"sharemouse/internal/protocol"
)

// systemPointer reads and warps the real OS cursor
type systemPointer struct{}

// SystemPointer returns a Pointer backed by the OS cursor
func SystemPointer() input.Pointer {
	return systemPointer{}
}

func (systemPointer) Location() (int, int) {
	return robotgo.Location()
}

func (systemPointer) Move(x, y int) {
	robotgo.Move(x, y)
}

var buttonNames = map[protocol.Kind]string{
	protocol.KindLeftClick:     "left",
	protocol.KindLeftRelease:   "left",
	protocol.KindRightClick:    "right",
	protocol.KindRightRelease:  "right",
	protocol.KindMiddleClick:   "center",
	protocol.KindMiddleRelease: "center",
}

// SystemInjector synthesizes events as OS input
type SystemInjector struct {
	mu sync.Mutex
}

// NewSystemInjector creates an injector for the running OS
func NewSystemInjector() *SystemInjector {
	return &SystemInjector{}
}

// Inject synthesizes one event. Calls are serialized.
func (i *SystemInjector) Inject(ev protocol.MouseEvent) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch ev.Kind {
	case protocol.KindMove:
		robotgo.Move(round(ev.X), round(ev.Y))
	case protocol.KindMoveRelative:
		robotgo.MoveRelative(round(ev.DX), round(ev.DY))
	case protocol.KindLeftClick, protocol.KindRightClick, protocol.KindMiddleClick:
		return robotgo.MouseDown(buttonNames[ev.Kind])
	case protocol.KindLeftRelease, protocol.KindRightRelease, protocol.KindMiddleRelease:
		return robotgo.MouseUp(buttonNames[ev.Kind])
	case protocol.KindScrollUp:
		robotgo.Scroll(0, 1)
	case protocol.KindScrollDown:
		robotgo.Scroll(0, -1)
	case protocol.KindScroll:
		robotgo.Scroll(int(ev.ScrollX), int(ev.ScrollY))
	default:
		return fmt.Errorf("%w: %s", input.ErrUnsupportedEvent, ev.Kind)
	}
	return nil
}

func round(v float64) int {
	return int(math.Round(v))
}
