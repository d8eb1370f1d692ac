package input

import (
	"context"
	"sync"
	"testing"
	"time"

	"sharemouse/internal/geometry"
	"sharemouse/internal/queue"
)

type fakePointer struct {
	mu    sync.Mutex
	x, y  int
	moves [][2]int
}

func (f *fakePointer) Location() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y
}

func (f *fakePointer) Move(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x, f.y = x, y
	f.moves = append(f.moves, [2]int{x, y})
}

func (f *fakePointer) set(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x, f.y = x, y
}

func newTestPoller(ptr *fakePointer) (*Poller, *queue.Queue[Sample]) {
	q := queue.New[Sample]()
	return NewPoller(ptr, geometry.Screen{Width: 1920, Height: 1080}, time.Millisecond, q), q
}

func TestPollerReportsAbsoluteChanges(t *testing.T) {
	ptr := &fakePointer{x: 100, y: 200}
	p, q := newTestPoller(ptr)

	p.poll()
	p.poll() // unchanged, no sample
	ptr.set(110, 205)
	p.poll()

	if q.Len() != 2 {
		t.Fatalf("Expected 2 samples, got %d", q.Len())
	}
	first, _ := q.Pop(context.Background())
	second, _ := q.Pop(context.Background())
	if first.Relative || first.Position != (geometry.LocalPoint{X: 100, Y: 200}) {
		t.Errorf("Expected absolute (100, 200), got %+v", first)
	}
	if second.Position != (geometry.LocalPoint{X: 110, Y: 205}) {
		t.Errorf("Expected absolute (110, 205), got %+v", second.Position)
	}
}

func TestPollerParkedReportsDeltas(t *testing.T) {
	ptr := &fakePointer{x: 100, y: 200}
	p, q := newTestPoller(ptr)

	p.Park()
	if x, y := ptr.Location(); x != 960 || y != 540 {
		t.Fatalf("Expected cursor parked at centre, got (%d, %d)", x, y)
	}

	ptr.set(970, 535)
	p.poll()
	p.poll() // recentred, nothing new

	if q.Len() != 1 {
		t.Fatalf("Expected 1 sample, got %d", q.Len())
	}
	s, _ := q.Pop(context.Background())
	if !s.Relative || s.DX != 10 || s.DY != -5 {
		t.Errorf("Expected relative (10, -5), got %+v", s)
	}
	if x, y := ptr.Location(); x != 960 || y != 540 {
		t.Errorf("Expected cursor recentred, got (%d, %d)", x, y)
	}
}

func TestPollerReleaseWarpsAndResumesAbsolute(t *testing.T) {
	ptr := &fakePointer{x: 0, y: 0}
	p, q := newTestPoller(ptr)

	p.Park()
	p.Release(geometry.LocalPoint{X: 1908, Y: 300})
	if x, y := ptr.Location(); x != 1908 || y != 300 {
		t.Fatalf("Expected cursor at (1908, 300), got (%d, %d)", x, y)
	}

	// The warp itself is not reported as motion.
	p.poll()
	if q.Len() != 0 {
		t.Errorf("Expected no sample after release, got %d", q.Len())
	}

	ptr.set(1900, 300)
	p.poll()
	s, _ := q.Pop(context.Background())
	if s.Relative || s.Position.X != 1900 {
		t.Errorf("Expected absolute sample at x=1900, got %+v", s)
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	ptr := &fakePointer{}
	p, _ := newTestPoller(ptr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Poller did not stop")
	}
}

func TestPollerStop(t *testing.T) {
	ptr := &fakePointer{}
	p, _ := newTestPoller(ptr)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	time.Sleep(5 * time.Millisecond)
	p.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Poller did not stop")
	}
}
