package session

import (
	"context"
	"net"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/input"
	"sharemouse/internal/network"
	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// Agent runs the receive role: every event the receiver accepts is handed to
// the injector in arrival order. Injection errors are logged and never
// reported back to the host.
type Agent struct {
	protocol network.Protocol
	receiver network.Receiver
	events   *queue.Queue[protocol.MouseEvent]
	injector input.Injector

	injected atomic.Uint64
	failed   atomic.Uint64
}

// NewAgent creates an agent listening on addr with the given transport
func NewAgent(p network.Protocol, addr string, bufSize int, injector input.Injector) *Agent {
	events := queue.New[protocol.MouseEvent]()
	return &Agent{
		protocol: p,
		receiver: network.NewReceiver(p, addr, bufSize, events),
		events:   events,
		injector: injector,
	}
}

// Start binds the listening socket
func (a *Agent) Start() error {
	if err := a.receiver.Start(); err != nil {
		return err
	}
	network.LogReachableAddrs(a.receiver.Addr())
	return nil
}

// Addr returns the bound address, nil before Start
func (a *Agent) Addr() net.Addr {
	return a.receiver.Addr()
}

// Run injects events until ctx is cancelled, then stops the receiver. Start
// must have succeeded.
func (a *Agent) Run(ctx context.Context) error {
	defer a.receiver.Stop()

	for {
		ev, ok := a.events.Pop(ctx)
		if !ok {
			injected, failed := a.Stats()
			log.Printf("Agent: stopped (%d injected, %d failed)", injected, failed)
			return nil
		}
		if err := a.injector.Inject(ev); err != nil {
			a.failed.Add(1)
			log.Warnf("Agent: failed to inject %s: %v", ev, err)
			continue
		}
		a.injected.Add(1)
		log.Debugf("Agent: injected %s", ev)
	}
}

// Stats returns how many events were injected and how many failed
func (a *Agent) Stats() (injected, failed uint64) {
	return a.injected.Load(), a.failed.Load()
}

// AgentStatus is the JSON snapshot served by the status API
type AgentStatus struct {
	Role     string `json:"role"`
	Protocol string `json:"protocol"`
	Addr     string `json:"addr"`
	Injected uint64 `json:"injected"`
	Failed   uint64 `json:"failed"`
}

// Status returns a snapshot of the agent
func (a *Agent) Status() AgentStatus {
	st := AgentStatus{Role: "receive", Protocol: a.protocol.String()}
	if addr := a.Addr(); addr != nil {
		st.Addr = addr.String()
	}
	st.Injected, st.Failed = a.Stats()
	return st
}
