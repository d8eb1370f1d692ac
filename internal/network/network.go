// Package network moves encoded pointer events between the two machines over
// UDP datagrams or a reliable stream (TCP or WebSocket).
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// DefaultBufferSize is the receive buffer cap used when none is configured
const DefaultBufferSize = 1024

// ErrUnknownProtocol is returned for an unrecognised transport name
var ErrUnknownProtocol = errors.New("unknown protocol")

// Protocol selects the transport
type Protocol uint8

const (
	UDP Protocol = iota
	TCP
	WebSocket
)

// ParseProtocol accepts Udp, Tcp or WebSocket in any case
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "udp":
		return UDP, nil
	case "tcp":
		return TCP, nil
	case "websocket", "ws":
		return WebSocket, nil
	}
	return UDP, fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "Tcp"
	case WebSocket:
		return "WebSocket"
	default:
		return "Udp"
	}
}

func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Protocol) UnmarshalText(text []byte) error {
	v, err := ParseProtocol(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Sender delivers events to the peer. A failed Send loses only that event.
type Sender interface {
	Send(ev protocol.MouseEvent) error
	Close() error
}

// Receiver listens for events and pushes every valid one to its queue.
type Receiver interface {
	Start() error
	Addr() net.Addr
	Stop()
}

// NewSender creates a sender for the given transport. remote is "host:port".
func NewSender(p Protocol, remote string) Sender {
	switch p {
	case TCP:
		return NewTCPSender(remote)
	case WebSocket:
		return NewWSSender(remote)
	default:
		return NewUDPSender(remote)
	}
}

// NewReceiver creates a receiver for the given transport listening on addr.
func NewReceiver(p Protocol, addr string, bufSize int, out *queue.Queue[protocol.MouseEvent]) Receiver {
	switch p {
	case TCP:
		return NewTCPReceiver(addr, bufSize, out)
	case WebSocket:
		return NewWSReceiver(addr, bufSize, out)
	default:
		return NewUDPReceiver(addr, bufSize, out)
	}
}

// Pump drains q into s until ctx is cancelled or q is closed. Send failures
// are logged and the event is dropped; there is no retry.
func Pump(ctx context.Context, s Sender, q *queue.Queue[protocol.MouseEvent]) error {
	for {
		ev, ok := q.Pop(ctx)
		if !ok {
			return nil
		}
		if err := s.Send(ev); err != nil {
			log.Warnf("Network: dropped %s: %v", ev, err)
			continue
		}
		log.Debugf("Network: sent %s", ev)
	}
}

func bufferSize(n int) int {
	if n <= 0 {
		return DefaultBufferSize
	}
	return n
}
