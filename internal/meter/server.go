package meter

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	queueSize    = 256
	writeTimeout = time.Second
)

// Server fans levels out to every connected websocket client. Publish is
// safe to call from a real-time audio callback: it never blocks and drops
// levels when the queue is full.
type Server struct {
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger

	queue   chan Level
	dropped atomic.Uint64

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer returns a server that is idle until Run is called.
func NewServer(logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.WithField("component", "meter"),
		queue:   make(chan Level, queueSize),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades requests on /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.WithField("clients", count).Info("client connected")

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[conn]
	delete(s.clients, conn)
	count := len(s.clients)
	s.mu.Unlock()

	if ok {
		conn.Close()
		s.logger.WithField("clients", count).Info("client disconnected")
	}
}

// Publish queues l for broadcast.
func (s *Server) Publish(l Level) {
	select {
	case s.queue <- l:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many levels were discarded because the queue was full.
func (s *Server) Dropped() uint64 {
	return s.dropped.Load()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run broadcasts queued levels until ctx is done, then disconnects all
// clients.
func (s *Server) Run(ctx context.Context) {
	var enc jx.Encoder
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case l := <-s.queue:
			enc.Reset()
			l.Encode(&enc)
			s.broadcast(enc.Bytes())
		}
	}
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.logger.WithError(err).Debug("write failed")
			s.drop(c)
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.Close()
		delete(s.clients, c)
	}
}

// ListenAndServe serves the websocket endpoint on addr and broadcasts
// levels until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	s.logger.WithField("addr", addr).Info("level meter listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
