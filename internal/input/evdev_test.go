package input

import (
	"context"
	"encoding/binary"
	"testing"

	"sharemouse/internal/geometry"
	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// rawEvent builds one input_event record with a zeroed timeval of tv bytes
func rawEvent(tv int, etype, code uint16, value int32) []byte {
	b := make([]byte, tv+8)
	binary.LittleEndian.PutUint16(b[tv:], etype)
	binary.LittleEndian.PutUint16(b[tv+2:], code)
	binary.LittleEndian.PutUint32(b[tv+4:], uint32(value))
	return b
}

func TestEvdevEventMapping(t *testing.T) {
	tests := []struct {
		name  string
		etype uint16
		code  uint16
		value int32
		want  protocol.MouseEvent
		ok    bool
	}{
		{"left press", evKey, btnLeft, 1, protocol.Button(protocol.KindLeftClick), true},
		{"left release", evKey, btnLeft, 0, protocol.Button(protocol.KindLeftRelease), true},
		{"right press", evKey, btnRight, 1, protocol.Button(protocol.KindRightClick), true},
		{"middle release", evKey, btnMiddle, 0, protocol.Button(protocol.KindMiddleRelease), true},
		{"auto repeat", evKey, btnLeft, 2, protocol.MouseEvent{}, false},
		{"keyboard key", evKey, 30, 1, protocol.MouseEvent{}, false},
		{"wheel up", evRel, relWheel, 1, protocol.Button(protocol.KindScrollUp), true},
		{"wheel down", evRel, relWheel, -2, protocol.Button(protocol.KindScrollDown), true},
		{"hwheel", evRel, relHWheel, -1, protocol.Scroll(-1, 0), true},
		{"rel x ignored", evRel, 0x00, 7, protocol.MouseEvent{}, false},
		{"sync ignored", 0x00, 0, 0, protocol.MouseEvent{}, false},
	}
	for _, tt := range tests {
		got, ok := evdevEvent(tt.etype, tt.code, tt.value)
		if ok != tt.ok || got != tt.want {
			t.Errorf("%s: Expected (%v, %v), got (%v, %v)", tt.name, tt.want, tt.ok, got, ok)
		}
	}
}

func TestEventParserSplitsRecords(t *testing.T) {
	for _, tv := range []int{8, 16} {
		p := eventParser{size: tv + 8}
		stream := append(rawEvent(tv, evKey, btnLeft, 1), rawEvent(tv, evRel, relWheel, -1)...)

		var got []uint16
		cb := func(etype, code uint16, value int32) { got = append(got, code) }

		// Deliver in awkward chunks to exercise buffering.
		p.feed(stream[:3], cb)
		p.feed(stream[3:tv+10], cb)
		p.feed(stream[tv+10:], cb)

		if len(got) != 2 || got[0] != btnLeft || got[1] != relWheel {
			t.Errorf("timeval %d: Expected codes [%d %d], got %v", tv, btnLeft, relWheel, got)
		}
		if p.buf != nil {
			t.Errorf("timeval %d: Expected empty buffer, got %d bytes", tv, len(p.buf))
		}
	}
}

func TestEvdevHandlePushesSamples(t *testing.T) {
	q := queue.New[Sample]()
	c := NewEvdevCapture("/dev/input/event0", q)

	c.handle(evKey, btnRight, 1)
	c.handle(evRel, 0x01, 4) // REL_Y, not ours
	c.handle(evKey, btnRight, 0)

	if q.Len() != 2 {
		t.Fatalf("Expected 2 samples, got %d", q.Len())
	}
	s, _ := q.Pop(context.Background())
	if s.IsMotion() || s.Event.Kind != protocol.KindRightClick {
		t.Errorf("Expected RightClick sample, got %+v", s)
	}
}

func TestEvdevGrabbedMotionBecomesRelative(t *testing.T) {
	q := queue.New[Sample]()
	c := NewEvdevCapture("/dev/input/event0", q)

	// Not grabbed: motion belongs to the Poller.
	c.handle(evRel, relX, 9)
	c.handle(evSyn, synReport, 0)
	if q.Len() != 0 {
		t.Fatalf("Expected no samples before Park, got %d", q.Len())
	}

	c.Park()
	c.handle(evRel, relX, 3)
	c.handle(evRel, relY, -2)
	c.handle(evRel, relX, 1)
	c.handle(evSyn, synReport, 0)
	c.handle(evSyn, synReport, 0) // empty report adds nothing

	if q.Len() != 1 {
		t.Fatalf("Expected 1 sample, got %d", q.Len())
	}
	s, _ := q.Pop(context.Background())
	if !s.Relative || s.DX != 4 || s.DY != -2 {
		t.Errorf("Expected relative (4, -2), got %+v", s)
	}

	c.Release(geometry.LocalPoint{})
	c.handle(evRel, relX, 5)
	c.handle(evSyn, synReport, 0)
	if q.Len() != 0 {
		t.Errorf("Expected no samples after Release, got %d", q.Len())
	}
}
