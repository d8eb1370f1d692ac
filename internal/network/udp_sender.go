package network

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
)

// UDPSender sends each event as one self-contained datagram. There is no
// acknowledgement, sequence number or retry.
type UDPSender struct {
	remote string

	mu   sync.Mutex
	conn *net.UDPConn

	sent atomic.Uint64
}

// NewUDPSender creates a sender for remote ("host:port"). The socket is
// opened on the first Send.
func NewUDPSender(remote string) *UDPSender {
	return &UDPSender{remote: remote}
}

func (s *UDPSender) dial() (*net.UDPConn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	addr, err := net.ResolveUDPAddr("udp", s.remote)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", s.remote, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	// 1 MB write buffer for bursts
	conn.SetWriteBuffer(1 << 20)
	s.conn = conn
	log.Printf("UDP Sender: sending to %s from %s", addr, conn.LocalAddr())
	return conn, nil
}

// Send encodes ev and writes it as a single datagram.
func (s *UDPSender) Send(ev protocol.MouseEvent) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conn, err := s.dial()
	if err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return err
	}
	s.sent.Add(1)
	return nil
}

// Sent returns the number of datagrams written
func (s *UDPSender) Sent() uint64 {
	return s.sent.Load()
}

// Close releases the socket
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
