// Package input provides the capture and injection boundaries: reading the
// physical pointer on the sending machine and synthesizing events on the
// receiving one.
package input

import (
	"context"
	"time"

	"sharemouse/internal/geometry"
	"sharemouse/internal/protocol"
)

// Sample is one physical pointer observation delivered by a capture source.
//
// A motion sample carries either an absolute Position (the OS cursor, when the
// local machine drives its own cursor) or a relative delta (when the local
// cursor is parked and only raw motion is meaningful). Button and scroll
// samples carry Event instead.
type Sample struct {
	Position geometry.LocalPoint
	DX       float64
	DY       float64
	Relative bool
	Event    protocol.MouseEvent
	Time     time.Time
}

// AbsoluteSample returns a motion sample at an absolute position
func AbsoluteSample(x, y float64) Sample {
	return Sample{Position: geometry.LocalPoint{X: x, Y: y}, Time: time.Now()}
}

// RelativeSample returns a motion sample carrying raw deltas. pos is where the
// OS cursor was observed before being recentred.
func RelativeSample(pos geometry.LocalPoint, dx, dy float64) Sample {
	return Sample{Position: pos, DX: dx, DY: dy, Relative: true, Time: time.Now()}
}

// EventSample wraps a button or scroll event
func EventSample(ev protocol.MouseEvent) Sample {
	return Sample{Event: ev, Time: time.Now()}
}

// IsMotion reports whether s is a motion sample rather than a button/scroll one.
func (s Sample) IsMotion() bool {
	return s.Event.Kind == protocol.KindNone
}

// Capture is a source of physical samples. Run blocks until ctx is cancelled
// or the source fails.
type Capture interface {
	Run(ctx context.Context) error
}

// Parker is implemented by capture sources that can hold the local OS cursor
// still while the remote machine owns control.
type Parker interface {
	// Park pins the local cursor; further motion is reported as deltas.
	Park()
	// Release unpins the cursor and places it at p.
	Release(p geometry.LocalPoint)
}

// Parkers fans Park and Release out to several capture sources, in order.
type Parkers []Parker

// Park parks every source
func (ps Parkers) Park() {
	for _, p := range ps {
		p.Park()
	}
}

// Release releases every source at p
func (ps Parkers) Release(p geometry.LocalPoint) {
	for _, pk := range ps {
		pk.Release(p)
	}
}

// Injector synthesizes a received event as local OS input
type Injector interface {
	Inject(ev protocol.MouseEvent) error
}

// Pointer reads and warps the OS cursor
type Pointer interface {
	Location() (x, y int)
	Move(x, y int)
}
