// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import "fmt"

// Event is a streaming update produced by the task lifecycle engine and
// delivered to subscribers and push notification endpoints.
type Event interface {
	// GetTaskID returns the task the event belongs to.
	GetTaskID() string

	// IsFinal reports whether this is the last event for the interaction.
	IsFinal() bool

	// Validate ensures the event is well formed.
	Validate() error
}

// Task snapshots travel on streams as well: the streaming result union is
// Task | TaskStatusUpdateEvent | TaskArtifactUpdateEvent.
var _ Event = (*Task)(nil)

// TaskStatusUpdateEvent announces a task status change.
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

var _ Event = (*TaskStatusUpdateEvent)(nil)

// NewTaskStatusUpdateEvent creates a status update event for a task.
func NewTaskStatusUpdateEvent(task *Task, final bool) *TaskStatusUpdateEvent {
	return &TaskStatusUpdateEvent{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Status:    task.Status,
		Final:     final,
		Kind:      KindStatusUpdate,
	}
}

// GetTaskID implements [Event].
func (e *TaskStatusUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal implements [Event].
func (e *TaskStatusUpdateEvent) IsFinal() bool { return e.Final }

// Validate implements [Event].
func (e *TaskStatusUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("status update event task ID cannot be empty")
	}
	return e.Status.Validate()
}

// TaskArtifactUpdateEvent announces a new artifact or artifact chunk.
type TaskArtifactUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId,omitempty"`
	Artifact  *Artifact      `json:"artifact"`
	Append    bool           `json:"append,omitempty"`
	LastChunk bool           `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

var _ Event = (*TaskArtifactUpdateEvent)(nil)

// NewTaskArtifactUpdateEvent creates an artifact update event for a task.
func NewTaskArtifactUpdateEvent(task *Task, artifact *Artifact, append_, lastChunk bool) *TaskArtifactUpdateEvent {
	return &TaskArtifactUpdateEvent{
		TaskID:    task.ID,
		ContextID: task.ContextID,
		Artifact:  artifact,
		Append:    append_,
		LastChunk: lastChunk,
		Kind:      KindArtifactUpdate,
	}
}

// GetTaskID implements [Event].
func (e *TaskArtifactUpdateEvent) GetTaskID() string { return e.TaskID }

// IsFinal implements [Event]. Artifact updates never terminate a stream.
func (e *TaskArtifactUpdateEvent) IsFinal() bool { return false }

// Validate implements [Event].
func (e *TaskArtifactUpdateEvent) Validate() error {
	if e.TaskID == "" {
		return fmt.Errorf("artifact update event task ID cannot be empty")
	}
	if e.Artifact == nil {
		return fmt.Errorf("artifact update event artifact cannot be nil")
	}
	return e.Artifact.Validate()
}
