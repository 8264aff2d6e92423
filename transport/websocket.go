// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server"
)

// WebSocketHandler serves A2A over a WebSocket connection. Each text
// frame from the client is one JSON-RPC request; responses and stream
// events come back as JSON-RPC response frames. Unlike SSE, a single
// connection can carry several concurrent streams.
type WebSocketHandler struct {
	processor *server.Processor
	upgrader  websocket.Upgrader
	logger    *slog.Logger

	writeTimeout time.Duration
}

var _ http.Handler = (*WebSocketHandler)(nil)

// WebSocketOption configures a [WebSocketHandler].
type WebSocketOption func(*WebSocketHandler)

// WithWebSocketLogger sets the handler logger.
func WithWebSocketLogger(logger *slog.Logger) WebSocketOption {
	return func(h *WebSocketHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin sets the origin check applied during the upgrade.
func WithCheckOrigin(check func(r *http.Request) bool) WebSocketOption {
	return func(h *WebSocketHandler) {
		h.upgrader.CheckOrigin = check
	}
}

// NewWebSocketHandler creates the WebSocket surface for a server.
func NewWebSocketHandler(srv *server.Server, opts ...WebSocketOption) *WebSocketHandler {
	h := &WebSocketHandler{
		processor: srv.Processor(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements [http.Handler]. It upgrades the connection and
// serves requests until the client disconnects.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	session := &wsSession{
		conn:         conn,
		processor:    h.processor,
		logger:       h.logger,
		writeTimeout: h.writeTimeout,
	}
	session.run(r.Context())
}

// wsSession is one upgraded connection. The write mutex serializes
// frames from the request loop and the stream pumps.
type wsSession struct {
	conn         *websocket.Conn
	processor    *server.Processor
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex
	pumps   sync.WaitGroup
}

func (s *wsSession) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.pumps.Wait()
		s.conn.Close()
	}()

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WarnContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		result := s.processor.ProcessRaw(ctx, data)
		if result.Stream != nil {
			s.pumps.Add(1)
			go func() {
				defer s.pumps.Done()
				s.pump(ctx, result)
			}()
			continue
		}
		if err := s.write(result.Response); err != nil {
			s.logger.WarnContext(ctx, "websocket write failed", "error", err)
			return
		}
	}
}

// pump forwards one subscription's events to the client, framed like the
// unary responses so the id ties them back to the originating request.
func (s *wsSession) pump(ctx context.Context, result *server.Result) {
	sub := result.Stream
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := s.write(a2a.NewSuccessResponse(result.ID, ev)); err != nil {
				s.logger.WarnContext(ctx, "websocket stream write failed",
					"task_id", sub.TaskID(), "error", err)
				return
			}
		}
	}
}

func (s *wsSession) write(resp *a2a.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
