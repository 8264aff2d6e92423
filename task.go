// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is a point-in-time status of a task: its state, the message
// that caused it (empty for system-driven transitions), and the moment it
// was recorded.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Validate ensures the status carries a defined state.
func (s *TaskStatus) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("invalid task state %q", s.State)
	}
	if s.Message != nil {
		if err := s.Message.Validate(); err != nil {
			return fmt.Errorf("status message: %w", err)
		}
	}
	return nil
}

// Task is a unit of work with a lifecycle state, a history of messages,
// and produced artifacts. Identity (ID, ContextID) never changes after
// creation; History is append-only; once the status state is terminal the
// task is immutable except for metadata.
type Task struct {
	// ID is the immutable task identifier, caller- or server-assigned.
	ID string `json:"id"`

	// ContextID groups related tasks; server-generated when absent.
	ContextID string `json:"contextId"`

	// Status is the current task status.
	Status TaskStatus `json:"status"`

	// History is the ordered, append-only message sequence.
	History []*Message `json:"history,omitempty"`

	// Artifacts is the ordered output of the task, keyed by artifact ID.
	Artifacts []*Artifact `json:"artifacts,omitempty"`

	// Metadata is opaque caller data.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Kind is always [KindTask] on the wire.
	Kind string `json:"kind,omitempty"`
}

// NewTask creates a task in the submitted state with the message appended
// to its history. Empty taskID or contextID are replaced with generated
// UUIDs; message validity is the caller's concern.
func NewTask(taskID, contextID string, message *Message) *Task {
	if taskID == "" {
		taskID = uuid.NewString()
	}
	if contextID == "" {
		if message != nil && message.ContextID != "" {
			contextID = message.ContextID
		} else {
			contextID = uuid.NewString()
		}
	}

	t := &Task{
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC(),
		},
		Kind: KindTask,
	}
	if message != nil {
		t.History = []*Message{message}
	}
	return t
}

// Validate ensures the task is well formed.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.ContextID == "" {
		return fmt.Errorf("task context ID cannot be empty")
	}
	if err := t.Status.Validate(); err != nil {
		return fmt.Errorf("task status: %w", err)
	}
	seen := make(map[string]struct{}, len(t.History))
	for i, msg := range t.History {
		if msg == nil {
			return fmt.Errorf("history message %d cannot be nil", i)
		}
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("history message %d: %w", i, err)
		}
		if _, dup := seen[msg.MessageID]; dup {
			return fmt.Errorf("duplicate message ID %q in history", msg.MessageID)
		}
		seen[msg.MessageID] = struct{}{}
	}
	for i, artifact := range t.Artifacts {
		if artifact == nil {
			return fmt.Errorf("artifact %d cannot be nil", i)
		}
		if err := artifact.Validate(); err != nil {
			return fmt.Errorf("artifact %d: %w", i, err)
		}
	}
	return nil
}

// GetTaskID implements [Event]. Task snapshots are the first item of a
// message/stream response, per the streaming result union.
func (t *Task) GetTaskID() string { return t.ID }

// IsFinal implements [Event]. A snapshot of a finished task terminates
// the stream that carries it.
func (t *Task) IsFinal() bool { return t.Status.State.Terminal() }

// AppendHistory appends a message to the task history.
func (t *Task) AppendHistory(message *Message) {
	t.History = append(t.History, message)
}

// ApplyStatus records a new status with a timestamp that never goes
// backwards relative to the previous status. If the new status carries a
// message, the message is also appended to history.
func (t *Task) ApplyStatus(state TaskState, message *Message) {
	now := time.Now().UTC()
	if now.Before(t.Status.Timestamp) {
		now = t.Status.Timestamp
	}
	t.Status = TaskStatus{
		State:     state,
		Message:   message,
		Timestamp: now,
	}
	if message != nil {
		t.AppendHistory(message)
	}
}

// AddArtifact appends an artifact, or concatenates its parts onto an
// existing artifact with the same ID when append is true.
func (t *Task) AddArtifact(artifact *Artifact, append_ bool) {
	if append_ {
		for _, existing := range t.Artifacts {
			if existing.ArtifactID == artifact.ArtifactID {
				existing.Parts = append(existing.Parts, artifact.Parts...)
				return
			}
		}
	}
	t.Artifacts = append(t.Artifacts, artifact)
}

// WithLimitedHistory returns a copy of the task whose history is windowed
// to the last historyLength entries. A nil historyLength keeps the full
// history; zero removes it entirely. The receiver is never mutated.
func (t *Task) WithLimitedHistory(historyLength *int) *Task {
	out := t.Clone()
	if historyLength == nil {
		return out
	}
	limit := *historyLength
	switch {
	case limit <= 0:
		out.History = nil
	case len(out.History) > limit:
		out.History = out.History[len(out.History)-limit:]
	}
	return out
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Status.Message = t.Status.Message.Clone()
	if t.History != nil {
		out.History = make([]*Message, len(t.History))
		for i, msg := range t.History {
			out.History[i] = msg.Clone()
		}
	}
	if t.Artifacts != nil {
		out.Artifacts = make([]*Artifact, len(t.Artifacts))
		for i, artifact := range t.Artifacts {
			out.Artifacts[i] = artifact.Clone()
		}
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
