package network

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// UDPReceiver listens for event datagrams. Malformed datagrams are logged
// and dropped; the loop keeps serving.
type UDPReceiver struct {
	addr    string
	bufSize int
	out     *queue.Queue[protocol.MouseEvent]

	conn *net.UDPConn
	done chan struct{}
	wg   sync.WaitGroup

	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewUDPReceiver creates a receiver bound to addr (":5000", "127.0.0.1:0").
// Datagrams longer than bufSize are dropped.
func NewUDPReceiver(addr string, bufSize int, out *queue.Queue[protocol.MouseEvent]) *UDPReceiver {
	return &UDPReceiver{
		addr:    addr,
		bufSize: bufferSize(bufSize),
		out:     out,
		done:    make(chan struct{}),
	}
}

// Start binds the socket and begins receiving
func (r *UDPReceiver) Start() error {
	laddr, err := net.ResolveUDPAddr("udp", r.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}
	r.conn = conn

	// Large read buffer for burst receives
	conn.SetReadBuffer(1 << 20)

	log.Printf("UDP Receiver: listening on %s", conn.LocalAddr())

	r.wg.Add(1)
	go r.readLoop()
	return nil
}

// Addr returns the bound address, nil before Start
func (r *UDPReceiver) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

func (r *UDPReceiver) readLoop() {
	defer r.wg.Done()

	// One spare byte so an oversized datagram is detected, not truncated
	// into something that decodes.
	buf := make([]byte, max(r.bufSize, protocol.MaxEncodedSize)+1)
	var backoff readBackoff
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				log.Warnf("UDP Receiver: socket closed, stopping")
				return
			}
			wait := backoff.next()
			log.Warnf("UDP Receiver: read error: %v (retrying in %s)", err, wait)
			select {
			case <-r.done:
				return
			case <-time.After(wait):
			}
			continue
		}
		backoff.reset()

		if n >= len(buf) || n > r.bufSize {
			r.dropped.Add(1)
			log.Warnf("UDP Receiver: dropped oversized datagram from %s", from)
			continue
		}

		ev, err := protocol.Decode(buf[:n])
		if err != nil {
			r.dropped.Add(1)
			log.Warnf("UDP Receiver: dropped malformed datagram from %s (%d bytes): %v", from, n, err)
			continue
		}

		r.received.Add(1)
		r.out.Push(ev)
	}
}

// readBackoff doubles the pause after each consecutive read error
type readBackoff struct {
	wait time.Duration
}

const (
	minReadBackoff = 10 * time.Millisecond
	maxReadBackoff = time.Second
)

func (b *readBackoff) next() time.Duration {
	if b.wait == 0 {
		b.wait = minReadBackoff
	} else {
		b.wait = min(b.wait*2, maxReadBackoff)
	}
	return b.wait
}

func (b *readBackoff) reset() {
	b.wait = 0
}

// Stats returns the number of events delivered and datagrams dropped
func (r *UDPReceiver) Stats() (received, dropped uint64) {
	return r.received.Load(), r.dropped.Load()
}

// Stop closes the socket and waits for the read loop to exit
func (r *UDPReceiver) Stop() {
	select {
	case <-r.done:
		return
	default:
	}
	close(r.done)
	if r.conn != nil {
		r.conn.Close()
	}
	r.wg.Wait()
}
