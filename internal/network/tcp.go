package network

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

// TCPSender writes length-prefixed events to a persistent connection. The
// connection is dialled on first use; after a write error it is dropped and
// redialled with the next event.
type TCPSender struct {
	remote string

	mu   sync.Mutex
	conn net.Conn
}

// NewTCPSender creates a sender for remote ("host:port")
func NewTCPSender(remote string) *TCPSender {
	return &TCPSender{remote: remote}
}

// Send writes one frame. On failure the event is lost and the connection
// reset.
func (s *TCPSender) Send(ev protocol.MouseEvent) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		conn, err := net.Dial("tcp", s.remote)
		if err != nil {
			return err
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		log.Printf("TCP Sender: connected to %s", conn.RemoteAddr())
		s.conn = conn
	}
	if err := protocol.WriteFrame(s.conn, data); err != nil {
		log.Warnf("TCP Sender: connection to %s lost: %v", s.remote, err)
		s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Close closes the connection, if any
func (s *TCPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// TCPReceiver accepts stream connections and decodes one event per frame.
// A malformed payload is dropped; an oversized length prefix closes the
// connection since the stream can no longer be framed.
type TCPReceiver struct {
	addr    string
	bufSize int
	out     *queue.Queue[protocol.MouseEvent]

	ln    net.Listener
	done  chan struct{}
	wg    sync.WaitGroup
	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	stopped bool
}

// NewTCPReceiver creates a receiver listening on addr. Frames larger than
// bufSize are rejected.
func NewTCPReceiver(addr string, bufSize int, out *queue.Queue[protocol.MouseEvent]) *TCPReceiver {
	return &TCPReceiver{
		addr:    addr,
		bufSize: bufferSize(bufSize),
		out:     out,
		done:    make(chan struct{}),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and begins accepting
func (r *TCPReceiver) Start() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}
	r.ln = ln
	log.Printf("TCP Receiver: listening on %s", ln.Addr())

	r.wg.Add(1)
	go r.acceptLoop()
	return nil
}

// Addr returns the bound address, nil before Start
func (r *TCPReceiver) Addr() net.Addr {
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

func (r *TCPReceiver) acceptLoop() {
	defer r.wg.Done()
	var backoff readBackoff
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			wait := backoff.next()
			log.Warnf("TCP Receiver: accept error: %v (retrying in %s)", err, wait)
			select {
			case <-r.done:
				return
			case <-time.After(wait):
			}
			continue
		}
		backoff.reset()

		if !r.register(conn) {
			return
		}
		go r.serve(conn)
	}
}

// register tracks conn so Stop can close it. A connection accepted while
// the receiver is stopping is closed at once and false is returned.
func (r *TCPReceiver) register(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		conn.Close()
		return false
	}
	r.conns[conn] = struct{}{}
	r.wg.Add(1)
	return true
}

func (r *TCPReceiver) serve(conn net.Conn) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.conns, conn)
		r.mu.Unlock()
		conn.Close()
	}()

	peer := conn.RemoteAddr()
	log.Printf("TCP Receiver: sender connected from %s", peer)

	br := bufio.NewReader(conn)
	for {
		payload, err := protocol.ReadFrame(br, r.bufSize)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				log.Printf("TCP Receiver: sender %s disconnected", peer)
			case errors.Is(err, protocol.ErrFrameTooLarge):
				log.Warnf("TCP Receiver: closing %s: %v", peer, err)
			default:
				select {
				case <-r.done:
				default:
					log.Warnf("TCP Receiver: read from %s failed: %v", peer, err)
				}
			}
			return
		}

		ev, err := protocol.Decode(payload)
		if err != nil {
			log.Warnf("TCP Receiver: dropped malformed frame from %s: %v", peer, err)
			continue
		}
		r.out.Push(ev)
	}
}

// Stop closes the listener and every open connection, then waits for the
// handlers to exit.
func (r *TCPReceiver) Stop() {
	select {
	case <-r.done:
		return
	default:
	}
	r.mu.Lock()
	r.stopped = true
	close(r.done)
	for conn := range r.conns {
		conn.Close()
	}
	r.mu.Unlock()
	if r.ln != nil {
		r.ln.Close()
	}
	r.wg.Wait()
}
