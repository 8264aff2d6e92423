// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package push delivers task events to registered webhook endpoints.
// Delivery is asynchronous and best effort: a failed webhook never fails
// the task operation that triggered it.
package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/task"
)

const (
	// DefaultMaxRetries is the number of re-attempts after a failed
	// delivery.
	DefaultMaxRetries = 3

	// DefaultBackoff is the delay before the first retry; subsequent
	// retries double it.
	DefaultBackoff = 1 * time.Second

	// DefaultTimeout bounds a single delivery attempt.
	DefaultTimeout = 30 * time.Second

	userAgent = "a2a-core-push"

	// notificationTokenHeader echoes the caller-supplied token on every
	// delivery so the endpoint can correlate it with its registration.
	notificationTokenHeader = "X-A2A-Notification-Token"
)

// Dispatcher sends task snapshots to the webhook registered for a task.
// It consumes lifecycle events, looks up the push configuration, and
// POSTs asynchronously with bounded retries.
type Dispatcher struct {
	client     *http.Client
	configs    task.PushConfigStore
	store      task.Store
	auth       Authenticator
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// Option configures a [Dispatcher].
type Option func(*Dispatcher)

// WithHTTPClient sets the HTTP client used for deliveries.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxRetries sets the number of re-attempts after a failed delivery.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before the first retry.
func WithBackoff(delay time.Duration) Option {
	return func(d *Dispatcher) {
		if delay > 0 {
			d.backoff = delay
		}
	}
}

// WithTimeout bounds a single delivery attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithAuthenticator sets the authenticator applied to delivery requests.
func WithAuthenticator(auth Authenticator) Option {
	return func(d *Dispatcher) {
		d.auth = auth
	}
}

// NewDispatcher creates a Dispatcher reading configurations from configs
// and task snapshots from store.
func NewDispatcher(configs task.PushConfigStore, store task.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		configs:    configs,
		store:      store,
		auth:       SchemeAuthenticator{},
		logger:     slog.Default(),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnEvent implements the engine's event sink. It resolves the task's push
// configuration and, when one exists, delivers the current task snapshot.
// All store access and delivery happens in the background: the engine
// calls this while holding the task lock, so OnEvent must return without
// blocking on I/O. Errors are logged, never returned to the caller.
func (d *Dispatcher) OnEvent(ctx context.Context, event a2a.Event) {
	taskID := event.GetTaskID()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		// Deliveries outlive the triggering request.
		bg := context.WithoutCancel(ctx)

		config, ok, err := d.configs.GetConfig(bg, taskID)
		if err != nil {
			d.logger.ErrorContext(bg, "failed to load push config",
				"task_id", taskID, "error", err)
			return
		}
		if !ok {
			return
		}

		snapshot, err := d.store.Get(bg, taskID)
		if err != nil {
			d.logger.ErrorContext(bg, "failed to load task for push delivery",
				"task_id", taskID, "error", err)
			return
		}

		d.deliver(bg, snapshot, &config.PushNotificationConfig)
	}()
}

// deliver POSTs the task snapshot with retries. Client errors (HTTP 4xx)
// are not retried; transport errors and server errors are, with doubling
// backoff.
func (d *Dispatcher) deliver(ctx context.Context, snapshot *a2a.Task, config *a2a.PushNotificationConfig) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to encode task for push delivery",
			"task_id", snapshot.ID, "error", err)
		return
	}

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			delay := d.backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}

		status, err := d.attempt(ctx, snapshot.ID, body, config)
		if err == nil {
			d.logger.InfoContext(ctx, "push notification delivered",
				"task_id", snapshot.ID, "url", config.URL, "attempt", attempt+1)
			return
		}

		if status >= 400 && status < 500 {
			d.logger.WarnContext(ctx, "push notification rejected by endpoint",
				"task_id", snapshot.ID, "url", config.URL,
				"status", status, "error", err)
			return
		}

		d.logger.WarnContext(ctx, "push notification attempt failed",
			"task_id", snapshot.ID, "url", config.URL,
			"attempt", attempt+1, "error", err)
	}

	d.logger.ErrorContext(ctx, "push notification delivery exhausted retries",
		"task_id", snapshot.ID, "url", config.URL)
}

// attempt performs one delivery. The returned status is zero for
// transport-level failures.
func (d *Dispatcher) attempt(ctx context.Context, taskID string, body []byte, config *a2a.PushNotificationConfig) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, config.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if config.Token != "" {
		req.Header.Set(notificationTokenHeader, config.Token)
	}
	if d.auth != nil {
		if err := d.auth.Apply(req, body, config.Authentication); err != nil {
			return 0, fmt.Errorf("apply authentication: %w", err)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, detail)
	}
	return resp.StatusCode, nil
}

// Close stops accepting new deliveries and waits for in-flight ones.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
