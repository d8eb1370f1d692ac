// Package cursor decides which machine owns the pointer. It tracks the
// virtual cursor position across both screens, detects edge crossings and
// produces the events that must be forwarded to the peer.
package cursor

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/geometry"
	"sharemouse/internal/hotkey"
	"sharemouse/internal/input"
	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// Options tune the state machine
type Options struct {
	// Hysteresis is how far, in pixels, the virtual cursor must travel into
	// the local screen before control returns from the remote. Zero gives the
	// plain boundary test.
	Hysteresis float64
	// Mode selects absolute or relative encoding for forwarded motion.
	Mode MoveMode
	// Reclaim, when set, pulls control back to the local side as soon as one
	// of its chords completes while the remote owns the pointer.
	Reclaim *hotkey.Manager
}

// Output is the result of processing one sample.
type Output struct {
	// Events must be sent to the peer in order.
	Events []protocol.MouseEvent
	// Side is the owner after the sample.
	Side Side
	// Switched is set when this sample changed the owner. After an edge
	// crossing Events[0] is the transfer event; a reclaim carries only the
	// releases of buttons still held on the remote.
	Switched bool
	// Park asks the capture source to pin the local cursor (Local→Remote).
	Park bool
	// Warp is where the capture source should release the local cursor
	// (Remote→Local).
	Warp *geometry.LocalPoint
}

// Machine is the cursor ownership state machine. All state is guarded by one
// mutex held for the duration of a single Process call.
type Machine struct {
	tr   *geometry.Transformer
	opts Options

	mu       sync.Mutex
	virtual  geometry.VirtualPoint
	side     Side
	last     *geometry.LocalPoint
	seeded   bool
	onSwitch func(Side)
}

// New creates a machine for the given layout. Control starts on the local
// side; the position is seeded by the first motion sample.
func New(tr *geometry.Transformer, opts Options) *Machine {
	if opts.Hysteresis < 0 {
		opts.Hysteresis = 0
	}
	return &Machine{tr: tr, opts: opts}
}

// OnSwitch registers fn to be called, outside the lock, after every change of
// owner.
func (m *Machine) OnSwitch(fn func(Side)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSwitch = fn
}

// State returns the current virtual position and owner.
func (m *Machine) State() (geometry.VirtualPoint, Side) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.virtual, m.side
}

// Process applies one physical sample and returns what must be forwarded.
func (m *Machine) Process(s input.Sample) Output {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !s.IsMotion() {
		if m.opts.Reclaim != nil && m.opts.Reclaim.Observe(s.Event) && m.side == Remote {
			return m.reclaim(s.Event)
		}
		if m.side == Remote {
			return Output{Events: []protocol.MouseEvent{s.Event}, Side: Remote}
		}
		return Output{Side: Local}
	}

	if !m.seeded {
		m.seed(s)
	}

	// 1. update position
	var dx, dy float64
	switch m.side {
	case Local:
		if s.Relative {
			log.Warnf("Cursor: relative motion (%.1f, %.1f) while local owns control, ignored", s.DX, s.DY)
			return Output{Side: Local}
		}
		m.virtual = m.tr.LocalToVirtual(s.Position)
	case Remote:
		dx, dy = m.delta(s)
		m.virtual = m.tr.Clamp(geometry.VirtualPoint{X: m.virtual.X + dx, Y: m.virtual.Y + dy})
	}
	if s.Relative {
		m.last = nil
	} else {
		pos := s.Position
		m.last = &pos
	}

	// 2. re-evaluate ownership
	band := 0.0
	if m.side == Remote {
		band = m.opts.Hysteresis
	}
	should := Local
	if m.side == Local && m.tr.IsAtTransferEdge(s.Position) {
		should = Remote
	} else if !m.tr.OnLocalSide(m.virtual, band) {
		should = Remote
	}

	// 3. handoff
	if should != m.side {
		return m.switchTo(should, s)
	}

	// 4/5. forward while remote
	if m.side == Local {
		return Output{Side: Local}
	}
	if dx == 0 && dy == 0 {
		return Output{Side: Remote}
	}
	return Output{Events: []protocol.MouseEvent{m.forward(dx, dy)}, Side: Remote}
}

func (m *Machine) seed(s input.Sample) {
	m.seeded = true
	p := s.Position
	if s.Relative {
		p = m.tr.Layout().Local.Center()
	}
	m.virtual = m.tr.LocalToVirtual(p)
	log.Debugf("Cursor: seeded at virtual (%.1f, %.1f)", m.virtual.X, m.virtual.Y)
}

// delta returns the motion carried by s while the remote owns control: the
// raw delta of a relative sample, or the distance from the last absolute one.
func (m *Machine) delta(s input.Sample) (float64, float64) {
	if s.Relative {
		return s.DX, s.DY
	}
	if m.last == nil {
		return 0, 0
	}
	return s.Position.X - m.last.X, s.Position.Y - m.last.Y
}

func (m *Machine) forward(dx, dy float64) protocol.MouseEvent {
	if m.opts.Mode == Relative {
		return protocol.MoveBy(dx, dy)
	}
	p := m.tr.VirtualToRemote(m.virtual)
	return protocol.Move(p.X, p.Y)
}

// switchTo hands control to side. The transfer event is a Move to the remote
// entry point at the crossing and replaces this sample's own forwarded move.
func (m *Machine) switchTo(side Side, s input.Sample) Output {
	crossing := m.tr.VirtualToLocal(m.virtual)
	entry := m.tr.EntryOnRemote(crossing)

	out := Output{
		Events:   []protocol.MouseEvent{protocol.Move(entry.X, entry.Y)},
		Side:     side,
		Switched: true,
	}

	switch side {
	case Remote:
		m.virtual = m.tr.RemoteToVirtual(entry)
		out.Park = true
	case Local:
		ret := m.tr.ReturnPosition(m.virtual, m.opts.Hysteresis)
		m.virtual = m.tr.LocalToVirtual(ret)
		out.Warp = &ret
	}

	pos := s.Position
	m.last = &pos
	m.side = side
	return out
}

// reclaim returns control to the local side without an edge crossing. The
// press that completed the chord is swallowed and the other held buttons are
// released on the remote so nothing stays stuck there. The cursor comes back
// at the centre of the local screen.
func (m *Machine) reclaim(ev protocol.MouseEvent) Output {
	var skip []string
	if name, ok := hotkey.ButtonOf(ev); ok {
		skip = append(skip, name)
	}
	centre := m.tr.Layout().Local.Center()
	m.virtual = m.tr.LocalToVirtual(centre)
	last := centre
	m.last = &last
	m.side = Local
	log.Printf("Cursor: control reclaimed by button chord")
	return Output{
		Events:   m.opts.Reclaim.Held(skip...),
		Side:     Local,
		Switched: true,
		Warp:     &centre,
	}
}

// Run drains in until ctx is cancelled or in is closed, pushing forwarded
// events to out. parker may be nil when the capture source cannot pin the
// local cursor.
func (m *Machine) Run(ctx context.Context, in *queue.Queue[input.Sample], out *queue.Queue[protocol.MouseEvent], parker input.Parker) error {
	for {
		s, ok := in.Pop(ctx)
		if !ok {
			return nil
		}

		res := m.Process(s)
		for _, ev := range res.Events {
			out.Push(ev)
		}
		if !res.Switched {
			continue
		}

		if len(res.Events) > 0 {
			log.Printf("Cursor: control moved to %s (first event %s)", res.Side, res.Events[0])
		} else {
			log.Printf("Cursor: control moved to %s", res.Side)
		}
		if parker != nil {
			if res.Park {
				parker.Park()
			} else if res.Warp != nil {
				parker.Release(*res.Warp)
			}
		}

		m.mu.Lock()
		fn := m.onSwitch
		m.mu.Unlock()
		if fn != nil {
			fn(res.Side)
		}
	}
}
