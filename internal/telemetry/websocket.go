package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

const (
	sendQueue = 16
	writeWait = time.Second
	readLimit = 4096
)

type client struct {
	send chan []byte
}

// hub tracks websocket clients. A client whose queue is full skips the
// message.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	quit    chan struct{}
	closed  bool
}

func (h *hub) init() {
	h.clients = make(map[*client]struct{})
	h.quit = make(chan struct{})
}

func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c] = struct{}{}

	return true
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *hub) broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.offer(msg)
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.closed = true
		close(h.quit)
	}
}

func (c *client) offer(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(*fasthttp.RequestCtx) bool { return true },
}

func (s *Server) handleWebsocket(ctx *fasthttp.RequestCtx) {
	err := upgrader.Upgrade(ctx, s.serveConn)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
	}
}

// serveConn owns the connection: a reader goroutine applies commands and
// queues replies, this goroutine is the only writer.
func (s *Server) serveConn(conn *websocket.Conn) {
	defer conn.Close()

	c := &client{send: make(chan []byte, sendQueue)}
	if !s.hub.add(c) {
		return
	}
	defer s.hub.remove(c)

	if last := s.status.Load(); last != nil {
		c.offer(*last)
	}

	s.log.WithField("remote", conn.RemoteAddr().String()).Info("websocket client connected")

	cmdCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)

		conn.SetReadLimit(readLimit)

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			reply, _ := s.control(cmdCtx, msg)
			c.offer(reply)
		}
	}()

	for {
		select {
		case msg := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			err := conn.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				return
			}
		case <-done:
			return
		case <-s.hub.quit:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))

			return
		}
	}
}
