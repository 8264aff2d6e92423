// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	a2a "github.com/go-a2a/a2a-core"
	"github.com/go-a2a/a2a-core/server/event"
	"github.com/go-a2a/a2a-core/server/task"
)

// DefaultHandler is the standard [RequestHandler]: it wires the lifecycle
// engine, the streaming hub, and the push configuration store into the
// A2A operation set.
type DefaultHandler struct {
	engine  *Engine
	hub     *event.Hub
	configs task.PushConfigStore
	logger  *slog.Logger
}

var _ RequestHandler = (*DefaultHandler)(nil)

// NewDefaultHandler creates a DefaultHandler around an engine.
func NewDefaultHandler(engine *Engine, hub *event.Hub, configs task.PushConfigStore, logger *slog.Logger) *DefaultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultHandler{
		engine:  engine,
		hub:     hub,
		configs: configs,
		logger:  logger,
	}
}

// OnMessageSend implements [MessageHandler].
func (h *DefaultHandler) OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (*a2a.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	taskID := params.Message.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	t, err := h.engine.Process(ctx, params, taskID)
	if err != nil {
		return nil, err
	}

	if cfg := params.Configuration; cfg != nil {
		if cfg.PushNotificationConfig != nil {
			err := h.configs.SetConfig(ctx, &a2a.TaskPushNotificationConfig{
				TaskID:                 t.ID,
				PushNotificationConfig: *cfg.PushNotificationConfig,
			})
			if err != nil {
				h.logger.WarnContext(ctx, "failed to register push config",
					"task_id", t.ID, "error", err)
			}
		}
		return t.WithLimitedHistory(cfg.HistoryLength), nil
	}
	return t, nil
}

// OnMessageStream implements [MessageHandler]. The subscription attaches
// before processing starts, so the caller observes every event of the
// interaction, and processing continues in the background.
func (h *DefaultHandler) OnMessageStream(ctx context.Context, params *a2a.MessageSendParams) (*event.Subscription, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	taskID, err := h.resolveStreamTask(ctx, params)
	if err != nil {
		return nil, err
	}

	sub := h.hub.Subscribe(taskID)

	// The referenced task can reach a terminal state between resolution
	// and attach, and a final event published in that window never
	// reaches this subscription. Resolve once more after attaching.
	if params.Message.TaskID != "" {
		t, err := h.engine.Get(ctx, taskID)
		if err == nil && t.Status.State.Terminal() {
			sub.Close()
			taskID, err = h.resolveStreamTask(ctx, params)
			if err != nil {
				return nil, err
			}
			sub = h.hub.Subscribe(taskID)
		}
	}

	go func() {
		// The stream outlives the request that opened it.
		bg := context.WithoutCancel(ctx)
		if _, err := h.engine.Process(bg, params, taskID); err != nil {
			h.logger.ErrorContext(bg, "stream processing failed",
				"task_id", taskID, "error", err)
			sub.Close()
		}
	}()

	return sub, nil
}

// resolveStreamTask decides which task id a streamed message targets. A
// caller-assigned id with no stored task yet is kept for the engine to
// create; a terminal task is rejected or redirected to a fresh task per
// the engine policy.
func (h *DefaultHandler) resolveStreamTask(ctx context.Context, params *a2a.MessageSendParams) (string, error) {
	taskID := params.Message.TaskID
	if taskID == "" {
		return uuid.NewString(), nil
	}

	t, err := h.engine.Get(ctx, taskID)
	switch {
	case isTaskNotFound(err):
		return taskID, nil
	case err != nil:
		return "", err
	}

	if !t.Status.State.Terminal() {
		return taskID, nil
	}
	if h.engine.Policy() == TerminalTaskReject {
		return "", a2a.NewUnsupportedOperationError(
			"task " + taskID + " is in terminal state " + string(t.Status.State))
	}
	// New-task policy: stream the fresh task, not the finished one the
	// message referenced.
	params.Message.TaskID = ""
	if params.Message.ContextID == "" {
		params.Message.ContextID = t.ContextID
	}
	return uuid.NewString(), nil
}

// OnGetTask implements [TaskManager].
func (h *DefaultHandler) OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	t, err := h.engine.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return t.WithLimitedHistory(params.HistoryLength), nil
}

// OnCancelTask implements [TaskManager].
func (h *DefaultHandler) OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}
	return h.engine.Cancel(ctx, params.ID)
}

// OnSetTaskPushNotificationConfig implements [NotificationManager].
func (h *DefaultHandler) OnSetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	if _, err := h.engine.Get(ctx, params.TaskID); err != nil {
		return nil, err
	}
	if err := h.configs.SetConfig(ctx, params); err != nil {
		return nil, a2a.AsError(err)
	}

	h.logger.InfoContext(ctx, "push config registered",
		"task_id", params.TaskID, "url", params.PushNotificationConfig.URL)
	return params, nil
}

// OnGetTaskPushNotificationConfig implements [NotificationManager].
func (h *DefaultHandler) OnGetTaskPushNotificationConfig(ctx context.Context, params *a2a.TaskIDParams) (*a2a.TaskPushNotificationConfig, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	if _, err := h.engine.Get(ctx, params.ID); err != nil {
		return nil, err
	}

	config, ok, err := h.configs.GetConfig(ctx, params.ID)
	if err != nil {
		return nil, a2a.AsError(err)
	}
	if !ok {
		return nil, a2a.NewPushNotificationNotSupportedError()
	}
	return config, nil
}

// OnResubscribe implements [StreamingHandler]. Reattaching to a running
// task sends nothing up front: the subscriber simply receives whatever
// the engine publishes next. A task that already finished would leave
// such a stream hanging forever, so in that one case the subscription is
// seeded with the terminal snapshot and closes right after delivering it.
func (h *DefaultHandler) OnResubscribe(ctx context.Context, params *a2a.TaskQueryParams) (*event.Subscription, error) {
	if err := params.Validate(); err != nil {
		return nil, a2a.NewInvalidParamsError(err.Error())
	}

	// Attach before reading the state: checking first leaves a window
	// where the final event lands between the check and the attach and
	// the subscription never ends. Seeding a subscription that already
	// received the final event is a no-op, so this cannot deliver the
	// terminal event twice.
	sub := h.hub.Subscribe(params.ID)

	t, err := h.engine.Get(ctx, params.ID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	if t.Status.State.Terminal() {
		h.hub.PublishTo(sub, t.Clone())
	}
	return sub, nil
}
