package input

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"sharemouse/internal/geometry"
	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// Linux input event codes we care about
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0x00

	relX      = 0x00
	relY      = 0x01
	relHWheel = 0x06
	relWheel  = 0x08

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

// DefaultReopenDelay is the pause between attempts to reopen a device that
// failed mid-run
const DefaultReopenDelay = time.Second

// EvdevCapture reads button presses and wheel ticks from a Linux input device
// node (/dev/input/eventN). Pointer motion is left to the Poller, except while
// parked: the device is then grabbed so clicks do not also land on the local
// desktop, and its raw motion is reported as relative samples.
type EvdevCapture struct {
	path  string
	out   *queue.Queue[Sample]
	delay time.Duration

	mu      sync.Mutex
	dev     *os.File
	grabbed bool
	dx, dy  float64
}

// NewEvdevCapture creates a capture for the device at path
func NewEvdevCapture(path string, out *queue.Queue[Sample]) *EvdevCapture {
	return &EvdevCapture{path: path, out: out, delay: DefaultReopenDelay}
}

// Park grabs the device for exclusive use
func (c *EvdevCapture) Park() {
	c.setGrabbed(true)
}

// Release gives the device back to the desktop. The cursor position is the
// Poller's business.
func (c *EvdevCapture) Release(geometry.LocalPoint) {
	c.setGrabbed(false)
}

func (c *EvdevCapture) setGrabbed(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grabbed = on
	c.dx, c.dy = 0, 0
	if c.dev != nil {
		grab(c.dev, on)
	}
}

// attach makes f the current device, re-applying a pending grab
func (c *EvdevCapture) attach(f *os.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev = f
	if c.grabbed {
		grab(f, true)
	}
}

func (c *EvdevCapture) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev = nil
}

// Path returns the device node being read
func (c *EvdevCapture) Path() string {
	return c.path
}

// evdevEvent maps one raw input_event onto a MouseEvent. Key auto-repeat
// (value 2) and motion axes are ignored.
func evdevEvent(etype, code uint16, value int32) (protocol.MouseEvent, bool) {
	switch etype {
	case evKey:
		if value != 0 && value != 1 {
			return protocol.MouseEvent{}, false
		}
		pressed := value == 1
		var kind protocol.Kind
		switch code {
		case btnLeft:
			kind = pick(pressed, protocol.KindLeftClick, protocol.KindLeftRelease)
		case btnRight:
			kind = pick(pressed, protocol.KindRightClick, protocol.KindRightRelease)
		case btnMiddle:
			kind = pick(pressed, protocol.KindMiddleClick, protocol.KindMiddleRelease)
		default:
			return protocol.MouseEvent{}, false
		}
		return protocol.Button(kind), true

	case evRel:
		switch code {
		case relWheel:
			if value > 0 {
				return protocol.Button(protocol.KindScrollUp), true
			}
			if value < 0 {
				return protocol.Button(protocol.KindScrollDown), true
			}
		case relHWheel:
			if value != 0 {
				return protocol.Scroll(value, 0), true
			}
		}
	}
	return protocol.MouseEvent{}, false
}

func pick(cond bool, a, b protocol.Kind) protocol.Kind {
	if cond {
		return a
	}
	return b
}

// eventParser splits a byte stream into fixed-size input_event records.
// The record size depends on the kernel's timeval (16 bytes on 32-bit,
// 24 on 64-bit).
type eventParser struct {
	size int
	buf  []byte
}

func (p *eventParser) feed(chunk []byte, cb func(etype, code uint16, value int32)) {
	p.buf = append(p.buf, chunk...)
	tv := p.size - 8
	for len(p.buf) >= p.size {
		ev := p.buf[:p.size]
		p.buf = p.buf[p.size:]
		etype := binary.LittleEndian.Uint16(ev[tv : tv+2])
		code := binary.LittleEndian.Uint16(ev[tv+2 : tv+4])
		value := int32(binary.LittleEndian.Uint32(ev[tv+4 : tv+8]))
		cb(etype, code, value)
	}
	if len(p.buf) == 0 {
		p.buf = nil
	}
}

// handle pushes the sample for one raw event, if any. While grabbed, motion
// is summed per SYN_REPORT and pushed as one relative sample.
func (c *EvdevCapture) handle(etype, code uint16, value int32) {
	if ev, ok := evdevEvent(etype, code, value); ok {
		c.out.Push(EventSample(ev))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.grabbed {
		return
	}
	switch {
	case etype == evRel && code == relX:
		c.dx += float64(value)
	case etype == evRel && code == relY:
		c.dy += float64(value)
	case etype == evSyn && code == synReport:
		if c.dx != 0 || c.dy != 0 {
			c.out.Push(RelativeSample(geometry.LocalPoint{}, c.dx, c.dy))
			c.dx, c.dy = 0, 0
		}
	}
}
