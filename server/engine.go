// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/internal/keylock"
	"github.com/go-a2a/a2a-core/server/event"
	"github.com/go-a2a/a2a-core/server/task"
)

// TerminalTaskPolicy decides what happens when a message references a
// task that already reached a terminal state.
type TerminalTaskPolicy int

const (
	// TerminalTaskReject refuses the message with an unsupported
	// operation error. This is the default.
	TerminalTaskReject TerminalTaskPolicy = iota

	// TerminalTaskNewTask starts a fresh task with a server-assigned ID
	// in the same context.
	TerminalTaskNewTask
)

// Engine drives the task state machine. All task mutations flow through
// it: it serializes work per task ID, validates every transition,
// persists snapshots, and publishes events to the hub and the sinks.
type Engine struct {
	store    task.Store
	locks    *keylock.KeyedMutex
	hub      *event.Hub
	executor AgentExecutor
	sinks    []EventSink
	policy   TerminalTaskPolicy
	logger   *slog.Logger
	tracer   trace.Tracer

	activeMu sync.Mutex
	active   map[string]*execution
}

// execution tracks one in-flight executor call so that tasks/cancel can
// interrupt it while Process still holds the task lock.
type execution struct {
	stop context.CancelFunc

	mu          sync.Mutex
	interrupted bool
}

func (x *execution) interrupt() {
	x.mu.Lock()
	x.interrupted = true
	x.mu.Unlock()
	x.stop()
}

func (x *execution) wasInterrupted() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.interrupted
}

// NewEngine creates an Engine. The executor must not be nil.
func NewEngine(store task.Store, hub *event.Hub, executor AgentExecutor, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if hub == nil {
		return nil, fmt.Errorf("hub cannot be nil")
	}
	if executor == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}

	e := &Engine{
		store:    store,
		locks:    keylock.New(),
		hub:      hub,
		executor: executor,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/go-a2a/a2a-core/server"),
		active:   make(map[string]*execution),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the configured terminal task policy.
func (e *Engine) Policy() TerminalTaskPolicy { return e.policy }

// Process runs one message through the lifecycle: it creates or continues
// the task identified by taskID, hands the message to the executor, and
// applies the validated outcome. taskID must already be resolved by the
// caller; when the message carries no task ID, a generated one is
// expected here so streaming callers can subscribe before processing.
func (e *Engine) Process(ctx context.Context, params *a2a.MessageSendParams, taskID string) (*a2a.Task, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Process",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	unlock := e.locks.Lock(taskID)
	defer unlock()

	t, err := e.prepare(ctx, params.Message, taskID)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "processing message",
		"task_id", t.ID, "context_id", t.ContextID, "state", t.Status.State)

	execCtx, stop := context.WithCancel(ctx)
	exec := &execution{stop: stop}
	e.track(t.ID, exec)
	result, execErr := e.executor.Execute(execCtx, t.Clone(), params.Message)
	e.untrack(t.ID)
	stop()

	if execErr != nil {
		if exec.wasInterrupted() {
			return e.finishCancel(ctx, t), nil
		}
		e.fail(ctx, t, execErr)
		return nil, a2a.AsError(execErr)
	}

	if err := validateResult(result); err != nil {
		e.fail(ctx, t, err)
		return nil, err
	}

	for i, artifact := range result.Artifacts {
		t.AddArtifact(artifact, false)
		e.publish(ctx, a2a.NewTaskArtifactUpdateEvent(t, artifact, false, i == len(result.Artifacts)-1))
	}

	t.ApplyStatus(result.State, result.Message)
	if err := e.store.Save(ctx, t); err != nil {
		return nil, a2a.AsError(err)
	}
	e.publish(ctx, a2a.NewTaskStatusUpdateEvent(t, result.State.Terminal()))

	e.logger.InfoContext(ctx, "message processed",
		"task_id", t.ID, "state", t.Status.State)
	return t, nil
}

// prepare loads or creates the task for an incoming message and moves it
// to the working state. The first event it publishes is always a snapshot
// of the task itself, so streams open with the Task before any status or
// artifact updates arrive.
func (e *Engine) prepare(ctx context.Context, msg *a2a.Message, taskID string) (*a2a.Task, error) {
	t, err := e.store.Get(ctx, taskID)
	switch {
	case err == nil:
	case isTaskNotFound(err):
		// Get-or-create: an unknown id starts a new task, caller-assigned
		// ids included.
		t = a2a.NewTask(taskID, msg.ContextID, msg)
		if err := e.store.Save(ctx, t); err != nil {
			return nil, a2a.AsError(err)
		}
		e.publish(ctx, t.Clone())
		return e.toWorking(ctx, t)
	default:
		return nil, a2a.AsError(err)
	}

	if t.Status.State.Terminal() {
		switch e.policy {
		case TerminalTaskNewTask:
			msg = msg.Clone()
			msg.TaskID = ""
			fresh := a2a.NewTask("", t.ContextID, msg)
			if err := e.store.Save(ctx, fresh); err != nil {
				return nil, a2a.AsError(err)
			}
			e.publish(ctx, fresh.Clone())
			return e.toWorking(ctx, fresh)
		default:
			return nil, a2a.NewUnsupportedOperationError(
				fmt.Sprintf("task %s is in terminal state %s", t.ID, t.Status.State))
		}
	}

	t.AppendHistory(msg)
	e.publish(ctx, t.Clone())
	return e.toWorking(ctx, t)
}

func (e *Engine) toWorking(ctx context.Context, t *a2a.Task) (*a2a.Task, error) {
	if t.Status.State != a2a.TaskStateWorking {
		t.ApplyStatus(a2a.TaskStateWorking, nil)
		e.publish(ctx, a2a.NewTaskStatusUpdateEvent(t, false))
	}
	if err := e.store.Save(ctx, t); err != nil {
		return nil, a2a.AsError(err)
	}
	return t, nil
}

// fail moves the task to the failed state after an executor error. The
// persistence error path here is log-only; the executor error is what the
// caller sees.
func (e *Engine) fail(ctx context.Context, t *a2a.Task, cause error) {
	e.logger.ErrorContext(ctx, "agent execution failed",
		"task_id", t.ID, "error", cause)

	t.ApplyStatus(a2a.TaskStateFailed, failureMessage(t, cause))
	if err := e.store.Save(ctx, t); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist failed task",
			"task_id", t.ID, "error", err)
	}
	e.publish(ctx, a2a.NewTaskStatusUpdateEvent(t, true))
}

func failureMessage(t *a2a.Task, cause error) *a2a.Message {
	msg := a2a.NewAgentMessage(&a2a.TextPart{Text: cause.Error()})
	msg.TaskID = t.ID
	msg.ContextID = t.ContextID
	return msg
}

// Get retrieves a task snapshot.
func (e *Engine) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	t, err := e.store.Get(ctx, taskID)
	if err != nil {
		return nil, a2a.AsError(err)
	}
	return t, nil
}

// Cancel moves a non-terminal task to the canceled state. Cancellation
// is cooperative: the executor is notified and any in-flight execution is
// interrupted before the task lock is taken, since Process holds that
// lock for the whole execution. The transition itself happens under the
// lock once the execution has wound down.
func (e *Engine) Cancel(ctx context.Context, taskID string) (*a2a.Task, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Cancel",
		trace.WithAttributes(attribute.String("a2a.task_id", taskID)))
	defer span.End()

	t, err := e.store.Get(ctx, taskID)
	if err != nil {
		return nil, a2a.AsError(err)
	}
	if t.Status.State.Terminal() {
		return nil, a2a.NewTaskNotCancelableError(taskID)
	}

	if err := e.executor.Cancel(ctx, t.Clone()); err != nil {
		return nil, a2a.AsError(err)
	}
	e.interrupt(taskID)

	unlock := e.locks.Lock(taskID)
	defer unlock()

	t, err = e.store.Get(ctx, taskID)
	if err != nil {
		return nil, a2a.AsError(err)
	}
	switch {
	case t.Status.State == a2a.TaskStateCanceled:
		// The interrupted execution already recorded the cancelation.
		return t, nil
	case t.Status.State.Terminal():
		return nil, a2a.NewTaskNotCancelableError(taskID)
	}

	t.ApplyStatus(a2a.TaskStateCanceled, nil)
	if err := e.store.Save(ctx, t); err != nil {
		return nil, a2a.AsError(err)
	}
	e.publish(ctx, a2a.NewTaskStatusUpdateEvent(t, true))

	e.logger.InfoContext(ctx, "task canceled", "task_id", taskID)
	return t, nil
}

// finishCancel records the canceled state after the executor stopped in
// response to an interrupt. Runs under the task lock held by Process.
func (e *Engine) finishCancel(ctx context.Context, t *a2a.Task) *a2a.Task {
	t.ApplyStatus(a2a.TaskStateCanceled, nil)
	if err := e.store.Save(ctx, t); err != nil {
		e.logger.ErrorContext(ctx, "failed to persist canceled task",
			"task_id", t.ID, "error", err)
	}
	e.publish(ctx, a2a.NewTaskStatusUpdateEvent(t, true))

	e.logger.InfoContext(ctx, "task canceled", "task_id", t.ID)
	return t
}

func (e *Engine) track(taskID string, exec *execution) {
	e.activeMu.Lock()
	e.active[taskID] = exec
	e.activeMu.Unlock()
}

func (e *Engine) untrack(taskID string) {
	e.activeMu.Lock()
	delete(e.active, taskID)
	e.activeMu.Unlock()
}

// interrupt cancels the in-flight execution of a task, if there is one.
func (e *Engine) interrupt(taskID string) {
	e.activeMu.Lock()
	exec, ok := e.active[taskID]
	e.activeMu.Unlock()
	if ok {
		exec.interrupt()
	}
}

// publish fans an event out to stream subscribers and then the sinks.
func (e *Engine) publish(ctx context.Context, ev a2a.Event) {
	e.hub.Publish(ctx, ev)
	for _, sink := range e.sinks {
		sink.OnEvent(ctx, ev)
	}
}

// validateResult checks the executor's outcome before it touches task
// state. A malformed outcome is an invalid agent response, not an
// internal error: the agent, not the server, produced it.
func validateResult(result *ExecutionResult) error {
	if result == nil {
		return a2a.NewInvalidAgentResponseError("executor returned no result")
	}
	if !result.State.Valid() {
		return a2a.NewInvalidAgentResponseError(
			fmt.Sprintf("unknown task state %q", result.State))
	}
	switch result.State {
	case a2a.TaskStateSubmitted, a2a.TaskStateUnknown:
		return a2a.NewInvalidAgentResponseError(
			fmt.Sprintf("illegal transition from %s to %s", a2a.TaskStateWorking, result.State))
	case a2a.TaskStateCanceled:
		return a2a.NewInvalidAgentResponseError("executor cannot cancel a task; canceled is reserved for tasks/cancel")
	}
	for i, artifact := range result.Artifacts {
		if artifact == nil {
			return a2a.NewInvalidAgentResponseError(fmt.Sprintf("artifact %d is nil", i))
		}
		if err := artifact.Validate(); err != nil {
			return a2a.NewInvalidAgentResponseError(fmt.Sprintf("artifact %d: %v", i, err))
		}
	}
	if result.Message != nil {
		if err := result.Message.Validate(); err != nil {
			return a2a.NewInvalidAgentResponseError(fmt.Sprintf("status message: %v", err))
		}
	}
	return nil
}

func isTaskNotFound(err error) bool {
	var a2aErr *a2a.Error
	return errors.As(err, &a2aErr) && a2aErr.Code == a2a.ErrorCodeTaskNotFound
}
