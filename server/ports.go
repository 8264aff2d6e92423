// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package server implements the A2A task lifecycle: request dispatch,
// task state management, streaming fan-out, and push notification
// triggering. Transports decode bytes and call into this package; agent
// logic plugs in through [AgentExecutor].
package server

import (
	"context"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/event"
)

// MessageHandler handles the message submission operations.
type MessageHandler interface {
	// OnMessageSend handles message/send. It returns the task snapshot
	// after processing.
	OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (*a2a.Task, error)

	// OnMessageStream handles message/stream. It returns a subscription
	// attached before processing begins, so no event is missed.
	OnMessageStream(ctx context.Context, params *a2a.MessageSendParams) (*event.Subscription, error)
}

// TaskManager handles task retrieval and cancelation.
type TaskManager interface {
	// OnGetTask handles tasks/get.
	OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error)

	// OnCancelTask handles tasks/cancel. It returns the canceled task
	// snapshot.
	OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error)
}

// NotificationManager handles push notification configuration.
type NotificationManager interface {
	// OnSetTaskPushNotificationConfig handles
	// tasks/pushNotificationConfig/set.
	OnSetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)

	// OnGetTaskPushNotificationConfig handles
	// tasks/pushNotificationConfig/get.
	OnGetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error)
}

// StreamingHandler handles stream reattachment.
type StreamingHandler interface {
	// OnResubscribe handles tasks/resubscribe. The returned subscription
	// is seeded with a snapshot of the current task status.
	OnResubscribe(ctx context.Context, params *a2a.TaskQueryParams) (*event.Subscription, error)
}

// RequestHandler is the full set of A2A operations a server exposes.
type RequestHandler interface {
	MessageHandler
	TaskManager
	NotificationManager
	StreamingHandler
}

// ExecutionResult is what an agent reports back after processing a
// message: the state the task should move to, an optional status
// message, and any artifacts produced.
type ExecutionResult struct {
	State     a2a.TaskState
	Message   *a2a.Message
	Artifacts []*a2a.Artifact
}

// AgentExecutor is the agent logic behind the lifecycle engine. Execute
// is called with the task already in the working state and must return
// the outcome; the engine validates it and owns all state bookkeeping.
type AgentExecutor interface {
	// Execute processes a message for the given task. The task is a
	// private copy; mutations to it are discarded.
	Execute(ctx context.Context, task *a2a.Task, message *a2a.Message) (*ExecutionResult, error)

	// Cancel asks the agent to stop work on the task. Returning nil
	// acknowledges the cancelation.
	Cancel(ctx context.Context, task *a2a.Task) error
}

// EventSink observes every event the engine publishes, after stream
// fan-out. Sinks must not block; slow work belongs in their own
// goroutines.
type EventSink interface {
	OnEvent(ctx context.Context, event a2a.Event)
}

// EventSinkFunc adapts a function to [EventSink].
type EventSinkFunc func(ctx context.Context, event a2a.Event)

// OnEvent implements [EventSink].
func (f EventSinkFunc) OnEvent(ctx context.Context, event a2a.Event) { f(ctx, event) }
