// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/event"
	"github.com/go-a2a/a2a-core/server/task"
)

// Config assembles a [Server]. Card and Executor are required; every
// other field has a working default.
type Config struct {
	// Card is the discovery document the server advertises. Its
	// capability flags gate streaming and push methods.
	Card *a2a.AgentCard

	// Executor is the agent logic.
	Executor AgentExecutor

	// Store persists tasks. Defaults to an in-memory store.
	Store task.Store

	// PushConfigStore persists webhook registrations. Defaults to an
	// in-memory store.
	PushConfigStore task.PushConfigStore

	// Logger defaults to [slog.Default].
	Logger *slog.Logger

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// StreamBufferSize is the per-subscriber queue capacity. Defaults
	// to [event.DefaultBufferSize].
	StreamBufferSize int

	// TerminalTaskPolicy defaults to [TerminalTaskReject].
	TerminalTaskPolicy TerminalTaskPolicy

	// Sinks observe every published event, push dispatchers included.
	Sinks []EventSink
}

// Server bundles the assembled pipeline: processor over handler over
// engine, plus the stores and the hub they share.
type Server struct {
	card      *a2a.AgentCard
	processor *Processor
	handler   *DefaultHandler
	engine    *Engine
	hub       *event.Hub
	store     task.Store
	configs   task.PushConfigStore
	logger    *slog.Logger
}

// New assembles a Server from config.
func New(config Config) (*Server, error) {
	if config.Card == nil {
		return nil, fmt.Errorf("agent card cannot be nil")
	}
	if err := config.Card.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent card: %w", err)
	}
	if config.Executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := config.Store
	if store == nil {
		store = task.NewInMemoryStore()
	}
	configs := config.PushConfigStore
	if configs == nil {
		configs = task.NewInMemoryPushConfigStore()
	}

	hubOpts := []event.HubOption{event.WithLogger(logger)}
	if config.StreamBufferSize > 0 {
		hubOpts = append(hubOpts, event.WithBufferSize(config.StreamBufferSize))
	}
	hub := event.NewHub(hubOpts...)

	engineOpts := []EngineOption{
		WithEngineLogger(logger),
		WithTerminalTaskPolicy(config.TerminalTaskPolicy),
	}
	if config.Tracer != nil {
		engineOpts = append(engineOpts, WithTracer(config.Tracer))
	}
	for _, sink := range config.Sinks {
		engineOpts = append(engineOpts, WithEventSink(sink))
	}
	engine, err := NewEngine(store, hub, config.Executor, engineOpts...)
	if err != nil {
		return nil, err
	}

	handler := NewDefaultHandler(engine, hub, configs, logger)
	processor := NewProcessor(handler, config.Card, WithProcessorLogger(logger))

	return &Server{
		card:      config.Card,
		processor: processor,
		handler:   handler,
		engine:    engine,
		hub:       hub,
		store:     store,
		configs:   configs,
		logger:    logger,
	}, nil
}

// Initialize prepares the backing stores.
func (s *Server) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// Card returns the advertised agent card.
func (s *Server) Card() *a2a.AgentCard { return s.card }

// Processor returns the request processor for transports.
func (s *Server) Processor() *Processor { return s.processor }

// Handler returns the operation handler, for callers that bypass the
// JSON-RPC layer.
func (s *Server) Handler() RequestHandler { return s.handler }

// Hub returns the streaming hub.
func (s *Server) Hub() *event.Hub { return s.hub }

// Store returns the task store.
func (s *Server) Store() task.Store { return s.store }

// PushConfigStore returns the webhook registration store.
func (s *Server) PushConfigStore() task.PushConfigStore { return s.configs }

// Close releases the server's resources.
func (s *Server) Close() error {
	return s.store.Close()
}
