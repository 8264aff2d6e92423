// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"testing"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/event"
	"github.com/go-a2a/a2a-core/server/task"
)

// scriptedExecutor lets each test decide the agent outcome.
type scriptedExecutor struct {
	execute func(ctx context.Context, t *a2a.Task, msg *a2a.Message) (*ExecutionResult, error)
	cancel  func(ctx context.Context, t *a2a.Task) error
}

func (e *scriptedExecutor) Execute(ctx context.Context, t *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
	if e.execute == nil {
		return &ExecutionResult{State: a2a.TaskStateCompleted}, nil
	}
	return e.execute(ctx, t, msg)
}

func (e *scriptedExecutor) Cancel(ctx context.Context, t *a2a.Task) error {
	if e.cancel == nil {
		return nil
	}
	return e.cancel(ctx, t)
}

func newTestEngine(t *testing.T, executor AgentExecutor, opts ...EngineOption) (*Engine, task.Store, *event.Hub) {
	t.Helper()
	store := task.NewInMemoryStore()
	hub := event.NewHub(event.WithBufferSize(64))
	engine, err := NewEngine(store, hub, executor, opts...)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, store, hub
}

func sendParams(text, taskID string) *a2a.MessageSendParams {
	msg := a2a.NewUserMessage(a2a.NewTextPart(text))
	msg.TaskID = taskID
	return &a2a.MessageSendParams{Message: msg}
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	var a2aErr *a2a.Error
	if !errors.As(err, &a2aErr) {
		t.Fatalf("Expected an *a2a.Error, got %v", err)
	}
	return a2aErr.Code
}

func TestEngineProcess_CreatesAndCompletesTask(t *testing.T) {
	ctx := context.Background()
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			reply := a2a.NewAgentMessage(a2a.NewTextPart("done"))
			return &ExecutionResult{
				State:     a2a.TaskStateCompleted,
				Message:   reply,
				Artifacts: []*a2a.Artifact{a2a.NewTextArtifact("result", "output")},
			}, nil
		},
	}
	engine, store, hub := newTestEngine(t, executor)

	sub := hub.Subscribe("task-1")
	got, err := engine.Process(ctx, sendParams("hello", ""), "task-1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if got.ID != "task-1" {
		t.Errorf("Expected task ID task-1, got %s", got.ID)
	}
	if got.Status.State != a2a.TaskStateCompleted {
		t.Errorf("Expected state completed, got %s", got.Status.State)
	}
	if len(got.History) != 2 {
		t.Errorf("Expected user message and agent reply in history, got %d entries", len(got.History))
	}
	if len(got.Artifacts) != 1 {
		t.Errorf("Expected 1 artifact, got %d", len(got.Artifacts))
	}

	stored, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Expected the task persisted: %v", err)
	}
	if stored.Status.State != a2a.TaskStateCompleted {
		t.Errorf("Expected the stored task completed, got %s", stored.Status.State)
	}

	// Task snapshot first, then working, artifact, final status.
	var kinds []string
	var sawFinal bool
	for ev := range sub.Events() {
		switch e := ev.(type) {
		case *a2a.Task:
			kinds = append(kinds, "task")
		case *a2a.TaskStatusUpdateEvent:
			kinds = append(kinds, string(e.Status.State))
			sawFinal = e.Final
		case *a2a.TaskArtifactUpdateEvent:
			kinds = append(kinds, "artifact")
		}
	}
	want := []string{"task", "working", "artifact", "completed"}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Errorf("Expected event order %v, got %v", want, kinds)
	}
	if !sawFinal {
		t.Error("Expected the last status event to be final")
	}
}

func TestEngineProcess_CallerAssignedTaskID(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t, &scriptedExecutor{})

	got, err := engine.Process(ctx, sendParams("hello", "t1"), "t1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got.ID != "t1" {
		t.Errorf("Expected the caller-assigned task ID kept, got %s", got.ID)
	}
	if got.Status.State != a2a.TaskStateCompleted {
		t.Errorf("Expected completed, got %s", got.Status.State)
	}

	stored, err := store.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Expected the task persisted under the caller's ID: %v", err)
	}
	if stored.ID != "t1" {
		t.Errorf("Expected stored ID t1, got %s", stored.ID)
	}
}

func TestEngineProcess_InputRequiredContinuation(t *testing.T) {
	ctx := context.Background()
	turns := 0
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			turns++
			if turns == 1 {
				ask := a2a.NewAgentMessage(a2a.NewTextPart("which city?"))
				return &ExecutionResult{State: a2a.TaskStateInputRequired, Message: ask}, nil
			}
			return &ExecutionResult{State: a2a.TaskStateCompleted}, nil
		},
	}
	engine, _, _ := newTestEngine(t, executor)

	first, err := engine.Process(ctx, sendParams("book a flight", ""), "task-1")
	if err != nil {
		t.Fatalf("First turn failed: %v", err)
	}
	if first.Status.State != a2a.TaskStateInputRequired {
		t.Fatalf("Expected input-required, got %s", first.Status.State)
	}

	second, err := engine.Process(ctx, sendParams("to paris", "task-1"), "task-1")
	if err != nil {
		t.Fatalf("Second turn failed: %v", err)
	}
	if second.Status.State != a2a.TaskStateCompleted {
		t.Errorf("Expected completed, got %s", second.Status.State)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the same task continued, got %s and %s", first.ID, second.ID)
	}
	// m1, ask, m2 at minimum; order is append-only.
	if len(second.History) < 3 {
		t.Errorf("Expected history to accumulate across turns, got %d entries", len(second.History))
	}
}

func TestEngineProcess_TerminalTaskRejected(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t, &scriptedExecutor{})

	if _, err := engine.Process(ctx, sendParams("hello", ""), "task-1"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	_, err := engine.Process(ctx, sendParams("again", "task-1"), "task-1")
	if code := errorCode(t, err); code != a2a.ErrorCodeUnsupportedOperation {
		t.Errorf("Expected code %d, got %d", a2a.ErrorCodeUnsupportedOperation, code)
	}
}

func TestEngineProcess_TerminalTaskNewTaskPolicy(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t, &scriptedExecutor{},
		WithTerminalTaskPolicy(TerminalTaskNewTask))

	first, err := engine.Process(ctx, sendParams("hello", ""), "task-1")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	second, err := engine.Process(ctx, sendParams("again", "task-1"), "task-1")
	if err != nil {
		t.Fatalf("Expected a fresh task under the new-task policy: %v", err)
	}
	if second.ID == first.ID {
		t.Error("Expected a server-assigned task ID for the fresh task")
	}
	if second.ContextID != first.ContextID {
		t.Errorf("Expected the fresh task in context %s, got %s", first.ContextID, second.ContextID)
	}
}

func TestEngineProcess_ExecutorFailureMarksTaskFailed(t *testing.T) {
	ctx := context.Background()
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			return nil, errors.New("model unavailable")
		},
	}
	engine, store, _ := newTestEngine(t, executor)

	_, err := engine.Process(ctx, sendParams("hello", ""), "task-1")
	if code := errorCode(t, err); code != a2a.ErrorCodeInternalError {
		t.Errorf("Expected code %d, got %d", a2a.ErrorCodeInternalError, code)
	}

	stored, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Expected the task persisted: %v", err)
	}
	if stored.Status.State != a2a.TaskStateFailed {
		t.Errorf("Expected the task failed, got %s", stored.Status.State)
	}
}

func TestEngineProcess_InvalidAgentResponse(t *testing.T) {
	tests := []struct {
		name   string
		result *ExecutionResult
	}{
		{name: "nil result", result: nil},
		{name: "unknown state", result: &ExecutionResult{State: "paused"}},
		{name: "transition to submitted", result: &ExecutionResult{State: a2a.TaskStateSubmitted}},
		{name: "transition to unknown", result: &ExecutionResult{State: a2a.TaskStateUnknown}},
		{name: "self-cancelation", result: &ExecutionResult{State: a2a.TaskStateCanceled}},
		{name: "invalid artifact", result: &ExecutionResult{
			State:     a2a.TaskStateCompleted,
			Artifacts: []*a2a.Artifact{{Name: "no id or parts"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &scriptedExecutor{
				execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
					return tt.result, nil
				},
			}
			engine, _, _ := newTestEngine(t, executor)

			_, err := engine.Process(context.Background(), sendParams("hello", ""), "task-1")
			if code := errorCode(t, err); code != a2a.ErrorCodeInvalidAgentResponse {
				t.Errorf("Expected code %d, got %d", a2a.ErrorCodeInvalidAgentResponse, code)
			}
		})
	}
}

func TestEngineCancel(t *testing.T) {
	ctx := context.Background()
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			return &ExecutionResult{State: a2a.TaskStateInputRequired}, nil
		},
	}
	engine, _, hub := newTestEngine(t, executor)

	if _, err := engine.Process(ctx, sendParams("hello", ""), "task-1"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	sub := hub.Subscribe("task-1")
	got, err := engine.Cancel(ctx, "task-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got.Status.State != a2a.TaskStateCanceled {
		t.Errorf("Expected canceled, got %s", got.Status.State)
	}

	ev := <-sub.Events()
	if !ev.IsFinal() {
		t.Error("Expected the cancel event to be final")
	}
}

func TestEngineCancel_InterruptsExecution(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	engine, store, _ := newTestEngine(t, executor)

	type outcome struct {
		task *a2a.Task
		err  error
	}
	processed := make(chan outcome, 1)
	go func() {
		got, err := engine.Process(ctx, sendParams("long job", ""), "task-1")
		processed <- outcome{task: got, err: err}
	}()

	<-started
	got, err := engine.Cancel(ctx, "task-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got.Status.State != a2a.TaskStateCanceled {
		t.Errorf("Expected canceled, got %s", got.Status.State)
	}

	result := <-processed
	if result.err != nil {
		t.Fatalf("Expected the interrupted turn to return the canceled task, got %v", result.err)
	}
	if result.task.Status.State != a2a.TaskStateCanceled {
		t.Errorf("Expected the processing side to observe canceled, got %s", result.task.Status.State)
	}

	stored, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Expected the task persisted: %v", err)
	}
	if stored.Status.State != a2a.TaskStateCanceled {
		t.Errorf("Expected the stored task canceled, got %s", stored.Status.State)
	}
}

func TestEngineCancel_TerminalTask(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t, &scriptedExecutor{})

	if _, err := engine.Process(ctx, sendParams("hello", ""), "task-1"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	_, err := engine.Cancel(ctx, "task-1")
	if code := errorCode(t, err); code != a2a.ErrorCodeTaskNotCancelable {
		t.Errorf("Expected code %d, got %d", a2a.ErrorCodeTaskNotCancelable, code)
	}
}

func TestEngineCancel_UnknownTask(t *testing.T) {
	engine, _, _ := newTestEngine(t, &scriptedExecutor{})

	_, err := engine.Cancel(context.Background(), "ghost")
	if code := errorCode(t, err); code != a2a.ErrorCodeTaskNotFound {
		t.Errorf("Expected code %d, got %d", a2a.ErrorCodeTaskNotFound, code)
	}
}

func TestEngineCancel_ExecutorRefusal(t *testing.T) {
	ctx := context.Background()
	executor := &scriptedExecutor{
		execute: func(ctx context.Context, tk *a2a.Task, msg *a2a.Message) (*ExecutionResult, error) {
			return &ExecutionResult{State: a2a.TaskStateWorking}, nil
		},
		cancel: func(ctx context.Context, tk *a2a.Task) error {
			return a2a.NewTaskNotCancelableError(tk.ID)
		},
	}
	engine, store, _ := newTestEngine(t, executor)

	if _, err := engine.Process(ctx, sendParams("hello", ""), "task-1"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	_, err := engine.Cancel(ctx, "task-1")
	if code := errorCode(t, err); code != a2a.ErrorCodeTaskNotCancelable {
		t.Errorf("Expected the executor refusal propagated, got %d", code)
	}

	stored, _ := store.Get(ctx, "task-1")
	if stored.Status.State == a2a.TaskStateCanceled {
		t.Error("Expected the task state unchanged after a refused cancel")
	}
}
