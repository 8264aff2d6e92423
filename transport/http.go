// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport exposes an assembled server over concrete wire
// protocols: JSON-RPC over HTTP with SSE streaming, and JSON-RPC over
// WebSocket.
package transport

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server"
)

const (
	// AgentCardPath is the well-known discovery path.
	AgentCardPath = "/.well-known/agent-card.json"

	// LegacyAgentCardPath is the discovery path earlier clients used.
	LegacyAgentCardPath = "/.well-known/agent.json"

	maxRequestBody = 4 << 20 // 4 MiB
)

// HTTPHandler serves A2A over HTTP: JSON-RPC requests on POST /, SSE for
// the streaming methods, and the agent card on the well-known paths.
type HTTPHandler struct {
	processor *server.Processor
	logger    *slog.Logger
	router    chi.Router
}

var _ http.Handler = (*HTTPHandler)(nil)

// HTTPOption configures an [HTTPHandler].
type HTTPOption func(*HTTPHandler)

// WithHTTPLogger sets the handler logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTPHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHTTPHandler creates the HTTP surface for a server.
func NewHTTPHandler(srv *server.Server, opts ...HTTPOption) *HTTPHandler {
	h := &HTTPHandler{
		processor: srv.Processor(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/", h.handleRPC)
	r.Get(AgentCardPath, h.handleAgentCard)
	r.Get(LegacyAgentCardPath, h.handleAgentCard)

	h.router = r
	return h
}

// ServeHTTP implements [http.Handler].
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPHandler) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, h.processor.Card()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write agent card", "error", err)
	}
}

func (h *HTTPHandler) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	result := h.processor.ProcessRaw(r.Context(), body)
	if result.Stream != nil {
		h.streamEvents(w, r, result)
		return
	}
	h.writeResponse(w, r, result.Response)
}

func (h *HTTPHandler) writeResponse(w http.ResponseWriter, r *http.Request, resp *a2a.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.MarshalWrite(w, resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// streamEvents bridges a subscription onto SSE. Each event is framed as
// a JSON-RPC response echoing the request id, per the A2A streaming
// contract. The stream ends when the subscription closes or the client
// goes away.
func (h *HTTPHandler) streamEvents(w http.ResponseWriter, r *http.Request, result *server.Result) {
	sub := result.Stream
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeResponse(w, r, a2a.NewErrorResponse(result.ID,
			a2a.NewInternalError()))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			data, err := json.Marshal(a2a.NewSuccessResponse(result.ID, ev))
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode stream event",
					"task_id", sub.TaskID(), "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
