package network

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

func pop(t *testing.T, q *queue.Queue[protocol.MouseEvent], wait time.Duration) (protocol.MouseEvent, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return q.Pop(ctx)
}

func expectEvents(t *testing.T, q *queue.Queue[protocol.MouseEvent], want ...protocol.MouseEvent) {
	t.Helper()
	for i, w := range want {
		got, ok := pop(t, q, 2*time.Second)
		if !ok {
			t.Fatalf("Event %d: Expected %v, got nothing", i, w)
		}
		if got != w {
			t.Errorf("Event %d: Expected %v, got %v", i, w, got)
		}
	}
}

func expectNoEvent(t *testing.T, q *queue.Queue[protocol.MouseEvent]) {
	t.Helper()
	if ev, ok := pop(t, q, 50*time.Millisecond); ok {
		t.Errorf("Expected no further events, got %v", ev)
	}
}

// lossySender drops the nth event it is given
type lossySender struct {
	Sender
	n, seen int
}

func (l *lossySender) Send(ev protocol.MouseEvent) error {
	l.seen++
	if l.seen == l.n {
		return nil
	}
	return l.Sender.Send(ev)
}

func startUDP(t *testing.T, bufSize int) (*UDPReceiver, *queue.Queue[protocol.MouseEvent]) {
	t.Helper()
	out := queue.New[protocol.MouseEvent]()
	r := NewUDPReceiver("127.0.0.1:0", bufSize, out)
	if err := r.Start(); err != nil {
		t.Fatalf("Failed to start receiver: %v", err)
	}
	t.Cleanup(r.Stop)
	return r, out
}

func TestUDPDatagramLoss(t *testing.T) {
	r, out := startUDP(t, 0)

	sender := NewUDPSender(r.Addr().String())
	defer sender.Close()

	e1 := protocol.Move(10, 20)
	e2 := protocol.Button(protocol.KindLeftClick)
	e3 := protocol.Move(30, 40)

	in := queue.New[protocol.MouseEvent]()
	in.Push(e1)
	in.Push(e2)
	in.Push(e3)
	in.Close()

	if err := Pump(context.Background(), &lossySender{Sender: sender, n: 2}, in); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	expectEvents(t, out, e1, e3)
	expectNoEvent(t, out)
	if sender.Sent() != 2 {
		t.Errorf("Expected 2 datagrams sent, got %d", sender.Sent())
	}
}

func TestUDPMalformedDatagramKeepsServing(t *testing.T) {
	r, out := startUDP(t, 64)

	conn, err := net.Dial("udp", r.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	garbage := [][]byte{
		{0xFF, 0x01, 0x02}, // unknown tag
		{0x01, 0x00, 0x00}, // truncated move
		make([]byte, 100),  // larger than the buffer
		{0x03, 0x00},       // click with trailing byte
	}
	for _, g := range garbage {
		conn.Write(g)
	}

	valid, _ := protocol.Encode(protocol.Scroll(1, -1))
	conn.Write(valid)

	expectEvents(t, out, protocol.Scroll(1, -1))
	received, dropped := r.Stats()
	if received != 1 || dropped != uint64(len(garbage)) {
		t.Errorf("Expected 1 received and %d dropped, got %d and %d", len(garbage), received, dropped)
	}
}

func TestUDPReceiverStopIsIdempotent(t *testing.T) {
	r, _ := startUDP(t, 0)
	r.Stop()
	r.Stop()
}

func startTCP(t *testing.T, bufSize int) (*TCPReceiver, *queue.Queue[protocol.MouseEvent]) {
	t.Helper()
	out := queue.New[protocol.MouseEvent]()
	r := NewTCPReceiver("127.0.0.1:0", bufSize, out)
	if err := r.Start(); err != nil {
		t.Fatalf("Failed to start receiver: %v", err)
	}
	t.Cleanup(r.Stop)
	return r, out
}

func TestTCPStreamInOrder(t *testing.T) {
	r, out := startTCP(t, 0)

	s := NewTCPSender(r.Addr().String())
	defer s.Close()

	events := []protocol.MouseEvent{
		protocol.Move(1, 2),
		protocol.Button(protocol.KindRightClick),
		protocol.Button(protocol.KindRightRelease),
		protocol.MoveBy(-3.5, 4),
	}
	for _, ev := range events {
		if err := s.Send(ev); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	expectEvents(t, out, events...)
}

func TestTCPMalformedFrameDropped(t *testing.T) {
	r, out := startTCP(t, 0)

	conn, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	protocol.WriteFrame(conn, []byte{0xEE, 0x01})
	valid, _ := protocol.Encode(protocol.Button(protocol.KindScrollDown))
	protocol.WriteFrame(conn, valid)

	expectEvents(t, out, protocol.Button(protocol.KindScrollDown))
}

func TestTCPOversizedFrameClosesConnection(t *testing.T) {
	r, out := startTCP(t, 32)

	conn, err := net.Dial("tcp", r.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	var header [protocol.FrameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], 1<<20)
	conn.Write(header[:])

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("Expected EOF after oversized frame, got %v", err)
	}
	expectNoEvent(t, out)

	// The receiver still accepts new senders.
	s := NewTCPSender(r.Addr().String())
	defer s.Close()
	if err := s.Send(protocol.Move(7, 8)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	expectEvents(t, out, protocol.Move(7, 8))
}

func TestWebSocketRoundTrip(t *testing.T) {
	out := queue.New[protocol.MouseEvent]()
	r := NewWSReceiver("127.0.0.1:0", 0, out)
	if err := r.Start(); err != nil {
		t.Fatalf("Failed to start receiver: %v", err)
	}
	defer r.Stop()

	s := NewWSSender(r.Addr().String())
	defer s.Close()

	events := []protocol.MouseEvent{
		protocol.Move(100, 200),
		protocol.Button(protocol.KindMiddleClick),
		protocol.Scroll(0, 2),
	}
	for _, ev := range events {
		if err := s.Send(ev); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	expectEvents(t, out, events...)
}

func TestWebSocketDropsTextAndGarbage(t *testing.T) {
	out := queue.New[protocol.MouseEvent]()
	r := NewWSReceiver("127.0.0.1:0", 0, out)
	if err := r.Start(); err != nil {
		t.Fatalf("Failed to start receiver: %v", err)
	}
	defer r.Stop()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+r.Addr().String()+WSPath, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Move"}`))
	conn.WriteMessage(websocket.BinaryMessage, []byte{0x42})
	valid, _ := protocol.Encode(protocol.Button(protocol.KindLeftRelease))
	conn.WriteMessage(websocket.BinaryMessage, valid)

	expectEvents(t, out, protocol.Button(protocol.KindLeftRelease))
}

func TestNewSenderAndReceiverByProtocol(t *testing.T) {
	out := queue.New[protocol.MouseEvent]()
	for _, p := range []Protocol{UDP, TCP, WebSocket} {
		r := NewReceiver(p, "127.0.0.1:0", 0, out)
		if err := r.Start(); err != nil {
			t.Fatalf("%s: Failed to start receiver: %v", p, err)
		}
		s := NewSender(p, r.Addr().String())
		if err := s.Send(protocol.Move(1, 1)); err != nil {
			t.Errorf("%s: Send failed: %v", p, err)
		}
		expectEvents(t, out, protocol.Move(1, 1))
		s.Close()
		r.Stop()
	}
}

func TestParseProtocol(t *testing.T) {
	tests := map[string]Protocol{"Udp": UDP, "udp": UDP, "": UDP, "Tcp": TCP, "WebSocket": WebSocket, "ws": WebSocket}
	for in, want := range tests {
		got, err := ParseProtocol(in)
		if err != nil || got != want {
			t.Errorf("%q: Expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseProtocol("quic"); !errors.Is(err, ErrUnknownProtocol) {
		t.Errorf("Expected ErrUnknownProtocol, got %v", err)
	}
}

func TestUsableIPv4(t *testing.T) {
	tests := []struct {
		addr net.Addr
		want string
	}{
		{&net.IPNet{IP: net.ParseIP("192.168.1.20")}, "192.168.1.20"},
		{&net.IPAddr{IP: net.ParseIP("10.0.0.2")}, "10.0.0.2"},
		{&net.IPNet{IP: net.ParseIP("127.0.0.1")}, ""},
		{&net.IPNet{IP: net.ParseIP("169.254.3.4")}, ""},
		{&net.IPNet{IP: net.ParseIP("fe80::1")}, ""},
	}
	for _, tt := range tests {
		got := usableIPv4(tt.addr)
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: Expected nil, got %s", tt.addr, got)
			}
			continue
		}
		if got.String() != tt.want {
			t.Errorf("%s: Expected %s, got %v", tt.addr, tt.want, got)
		}
	}
}

func TestReachableAddrsSpecificBind(t *testing.T) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5000}
	got, err := ReachableAddrs(addr)
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if len(got) != 1 || got[0] != "127.0.0.1:5000" {
		t.Errorf("Expected [127.0.0.1:5000], got %v", got)
	}
}

func TestUDPReceiverExitsWhenSocketClosed(t *testing.T) {
	r := NewUDPReceiver("127.0.0.1:0", 0, queue.New[protocol.MouseEvent]())
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Closing the socket behind the receiver's back must end the loop
	// instead of spinning on the error.
	r.conn.Close()

	exited := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the read loop to exit after the socket closed")
	}
	r.Stop()
}

func TestReadBackoff(t *testing.T) {
	var b readBackoff
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("step %d: Expected %s, got %s", i, w, got)
		}
	}
	for i := 0; i < 20; i++ {
		b.next()
	}
	if got := b.next(); got != maxReadBackoff {
		t.Errorf("Expected backoff capped at %s, got %s", maxReadBackoff, got)
	}
	b.reset()
	if got := b.next(); got != minReadBackoff {
		t.Errorf("Expected %s after reset, got %s", minReadBackoff, got)
	}
}

func TestTCPConnectionAcceptedDuringStopIsClosed(t *testing.T) {
	r := NewTCPReceiver("127.0.0.1:0", 0, queue.New[protocol.MouseEvent]())
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	r.Stop()

	local, remote := net.Pipe()
	defer remote.Close()
	if r.register(local) {
		t.Fatal("Expected register to refuse a connection after Stop")
	}
	if _, err := remote.Write([]byte{0}); err == nil {
		t.Error("Expected the refused connection to be closed")
	}
	if len(r.conns) != 0 {
		t.Errorf("Expected no tracked connections, got %d", len(r.conns))
	}
}
