package input

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/geometry"
	"sharemouse/internal/queue"
)

// DefaultPollInterval is how often the OS cursor is sampled
const DefaultPollInterval = 5 * time.Millisecond

// Poller samples the OS cursor position on a fixed interval. While parked it
// reports the offset from the screen centre as a relative sample and warps the
// cursor back to the centre, so motion keeps flowing even though the visible
// cursor stays put.
type Poller struct {
	pointer  Pointer
	out      *queue.Queue[Sample]
	interval time.Duration
	centerX  int
	centerY  int

	mu     sync.Mutex
	parked bool
	primed bool
	lastX  int
	lastY  int

	running atomic.Bool
}

// NewPoller creates a poller for a screen of the given size. Samples are
// pushed to out.
func NewPoller(pointer Pointer, screen geometry.Screen, interval time.Duration, out *queue.Queue[Sample]) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	c := screen.Center()
	p := &Poller{
		pointer:  pointer,
		out:      out,
		interval: interval,
		centerX:  int(c.X),
		centerY:  int(c.Y),
	}
	p.running.Store(true)
	return p
}

// Run polls until ctx is cancelled or Stop is called. Shutdown latency is
// bounded by one poll interval.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	x, y := p.pointer.Location()
	log.Printf("Capture: polling cursor every %s, starting at (%d, %d)", p.interval, x, y)

	for p.running.Load() {
		select {
		case <-ctx.Done():
			log.Printf("Capture: stopped")
			return nil
		case <-ticker.C:
			p.poll()
		}
	}
	log.Printf("Capture: stopped")
	return nil
}

// Stop asks Run to return at its next iteration
func (p *Poller) Stop() {
	p.running.Store(false)
}

func (p *Poller) poll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	x, y := p.pointer.Location()
	if p.parked {
		dx, dy := x-p.centerX, y-p.centerY
		if dx == 0 && dy == 0 {
			return
		}
		pos := geometry.LocalPoint{X: float64(x), Y: float64(y)}
		p.out.Push(RelativeSample(pos, float64(dx), float64(dy)))
		p.pointer.Move(p.centerX, p.centerY)
		return
	}

	if p.primed && x == p.lastX && y == p.lastY {
		return
	}
	p.primed = true
	p.lastX, p.lastY = x, y
	p.out.Push(AbsoluteSample(float64(x), float64(y)))
}

// Park pins the cursor at the screen centre
func (p *Poller) Park() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parked {
		return
	}
	p.parked = true
	p.pointer.Move(p.centerX, p.centerY)
	log.Debugf("Capture: cursor parked at (%d, %d)", p.centerX, p.centerY)
}

// Release unpins the cursor and warps it to pt
func (p *Poller) Release(pt geometry.LocalPoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	x, y := int(pt.X), int(pt.Y)
	p.pointer.Move(x, y)
	p.parked = false
	p.primed = true
	p.lastX, p.lastY = x, y
	log.Debugf("Capture: cursor released at (%d, %d)", x, y)
}
