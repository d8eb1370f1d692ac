package network

import (
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"sharemouse/internal/protocol"
	"sharemouse/internal/queue"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Peers are plain processes, not browsers
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSReceiver serves the WebSocket endpoint and decodes one event per binary
// message. Text messages and malformed payloads are dropped.
type WSReceiver struct {
	addr    string
	bufSize int
	out     *queue.Queue[protocol.MouseEvent]

	ln     net.Listener
	server *http.Server
	wg     sync.WaitGroup

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	stopped bool
}

// NewWSReceiver creates a receiver listening on addr. Messages larger than
// bufSize close the connection.
func NewWSReceiver(addr string, bufSize int, out *queue.Queue[protocol.MouseEvent]) *WSReceiver {
	return &WSReceiver{
		addr:    addr,
		bufSize: bufferSize(bufSize),
		out:     out,
		conns:   make(map[*websocket.Conn]struct{}),
	}
}

// Start binds the listener and serves in the background
func (r *WSReceiver) Start() error {
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}
	r.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc(WSPath, r.handleWebSocket)
	r.server = &http.Server{Handler: mux}

	log.Printf("WS Receiver: listening on ws://%s%s", ln.Addr(), WSPath)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WS Receiver: server stopped: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, nil before Start
func (r *WSReceiver) Addr() net.Addr {
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

func (r *WSReceiver) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Warnf("WS Receiver: failed to upgrade connection: %v", err)
		return
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.conns[conn] = struct{}{}
	r.wg.Add(1)
	r.mu.Unlock()

	go r.readPump(conn, req.RemoteAddr)
}

// readPump decodes messages from one sender until it disconnects
func (r *WSReceiver) readPump(conn *websocket.Conn, peer string) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.conns, conn)
		r.mu.Unlock()
		conn.Close()
	}()

	log.Printf("WS Receiver: sender connected from %s", peer)
	conn.SetReadLimit(int64(r.bufSize))

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("WS Receiver: read error from %s: %v", peer, err)
			} else {
				log.Printf("WS Receiver: sender %s disconnected", peer)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			log.Warnf("WS Receiver: dropped non-binary message from %s", peer)
			continue
		}

		ev, err := protocol.Decode(data)
		if err != nil {
			log.Warnf("WS Receiver: dropped malformed message from %s: %v", peer, err)
			continue
		}
		r.out.Push(ev)
	}
}

// Stop closes the listener and every connection, then waits for the pumps
func (r *WSReceiver) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	for conn := range r.conns {
		conn.Close()
	}
	r.mu.Unlock()

	if r.server != nil {
		r.server.Close()
	}
	r.wg.Wait()
}
