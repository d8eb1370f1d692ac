package network

import (
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
)

// WSPath is the endpoint the receiver serves
const WSPath = "/ws"

// WSSender sends each event as one binary WebSocket message. Like the TCP
// sender it dials lazily and redials after a write error.
type WSSender struct {
	remote string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSender creates a sender for remote ("host:port")
func NewWSSender(remote string) *WSSender {
	return &WSSender{remote: remote}
}

func (s *WSSender) url() string {
	u := url.URL{Scheme: "ws", Host: s.remote, Path: WSPath}
	return u.String()
}

// Send writes ev as a binary message
func (s *WSSender) Send(ev protocol.MouseEvent) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		u := s.url()
		conn, _, err := websocket.DefaultDialer.Dial(u, nil)
		if err != nil {
			return err
		}
		log.Printf("WS Sender: connected to %s", u)
		s.conn = conn
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		log.Warnf("WS Sender: connection to %s lost: %v", s.remote, err)
		s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// Close sends a close frame and closes the connection
func (s *WSSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := s.conn.Close()
	s.conn = nil
	return err
}
