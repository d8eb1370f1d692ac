// Package session wires the components of each role: the host captures and
// forwards, the agent receives and injects.
package session

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/config"
	"sharemouse/internal/cursor"
	"sharemouse/internal/geometry"
	"sharemouse/internal/input"
	"sharemouse/internal/network"
	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// Host runs the send role: capture sources feed the cursor state machine,
// whose output is drained by the network sender.
type Host struct {
	remote   string
	machine  *cursor.Machine
	sender   network.Sender
	samples  *queue.Queue[input.Sample]
	events   *queue.Queue[protocol.MouseEvent]
	parker   input.Parker
	captures []input.Capture
}

// NewHost builds the send role from cfg. pointer is the OS cursor the poller
// samples and parks.
func NewHost(cfg *config.Config, pointer input.Pointer) (*Host, error) {
	remote, err := cfg.RemoteAddr()
	if err != nil {
		return nil, err
	}

	samples := queue.New[input.Sample]()
	poller := input.NewPoller(pointer, cfg.Screen, cfg.PollInterval(), samples)
	captures := []input.Capture{poller}
	parkers := input.Parkers{poller}
	if cfg.InputDevice != "" {
		dev := input.NewEvdevCapture(cfg.InputDevice, samples)
		captures = append(captures, dev)
		parkers = append(parkers, dev)
	}

	tr := geometry.NewTransformer(cfg.GeometryLayout())
	return &Host{
		remote:   remote,
		machine:  cursor.New(tr, cfg.CursorOptions()),
		sender:   network.NewSender(cfg.Protocol, remote),
		samples:  samples,
		events:   queue.New[protocol.MouseEvent](),
		parker:   parkers,
		captures: captures,
	}, nil
}

// HostStatus is the JSON snapshot served by the status API
type HostStatus struct {
	Role     string  `json:"role"`
	Remote   string  `json:"remote"`
	Owner    string  `json:"owner"`
	VirtualX float64 `json:"virtual_x"`
	VirtualY float64 `json:"virtual_y"`
}

// Status returns the current owner and virtual cursor position
func (h *Host) Status() HostStatus {
	v, side := h.machine.State()
	return HostStatus{Role: "send", Remote: h.remote, Owner: side.String(), VirtualX: v.X, VirtualY: v.Y}
}

// OnSwitch registers a callback for ownership changes
func (h *Host) OnSwitch(fn func(cursor.Side)) {
	h.machine.OnSwitch(fn)
}

// Run blocks until ctx is cancelled or a task fails. Only startup failures
// of a capture, such as a missing permission, stop the whole role; the
// captures recover from later errors themselves.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Printf("Host: forwarding to %s", h.remote)

	var wg sync.WaitGroup
	errc := make(chan error, len(h.captures)+2)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errc <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	for _, c := range h.captures {
		run("capture", c.Run)
	}
	run("cursor", func(ctx context.Context) error {
		return h.machine.Run(ctx, h.samples, h.events, h.parker)
	})
	run("sender", func(ctx context.Context) error {
		return network.Pump(ctx, h.sender, h.events)
	})

	wg.Wait()
	h.samples.Close()
	h.events.Close()
	h.sender.Close()

	select {
	case err := <-errc:
		log.Errorf("Host: stopped: %v", err)
		return err
	default:
		log.Printf("Host: stopped")
		return nil
	}
}
