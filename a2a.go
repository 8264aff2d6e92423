// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package a2a provides the domain model for the Agent-to-Agent (A2A)
// protocol: tasks, messages, artifacts, streaming events, and the JSON-RPC
// envelope and error taxonomy that make up the wire contract.
//
// The task lifecycle engine, request dispatch, streaming fan-out, and push
// notification delivery built on top of this model live in the server
// package.
package a2a

// Version is the A2A protocol version implemented by this module.
const Version = "0.3.0"

// TaskState represents the lifecycle state of a Task.
type TaskState string

const (
	// TaskStateSubmitted indicates the task has been received and queued.
	TaskStateSubmitted TaskState = "submitted"

	// TaskStateWorking indicates the task is being processed.
	TaskStateWorking TaskState = "working"

	// TaskStateInputRequired indicates the task needs additional input
	// from the caller before it can continue.
	TaskStateInputRequired TaskState = "input-required"

	// TaskStateCompleted indicates the task finished successfully.
	TaskStateCompleted TaskState = "completed"

	// TaskStateCanceled indicates the task was canceled before completion.
	TaskStateCanceled TaskState = "canceled"

	// TaskStateFailed indicates the task encountered an error and could
	// not complete.
	TaskStateFailed TaskState = "failed"

	// TaskStateRejected indicates the task was rejected by the agent.
	TaskStateRejected TaskState = "rejected"

	// TaskStateAuthRequired indicates the task requires authentication
	// before it can proceed.
	TaskStateAuthRequired TaskState = "auth-required"

	// TaskStateUnknown is the fallback for an unrecognized or corrupt
	// state. It is never entered by a normal transition.
	TaskStateUnknown TaskState = "unknown"
)

// Terminal reports whether the state permits no further transitions.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	}
	return false
}

// Valid reports whether s is one of the defined task states.
func (s TaskState) Valid() bool {
	switch s {
	case TaskStateSubmitted, TaskStateWorking, TaskStateInputRequired,
		TaskStateCompleted, TaskStateCanceled, TaskStateFailed,
		TaskStateRejected, TaskStateAuthRequired, TaskStateUnknown:
		return true
	}
	return false
}

// Object kind discriminators carried in the "kind" field of wire objects.
const (
	// KindTask marks a Task object.
	KindTask = "task"

	// KindMessage marks a Message object.
	KindMessage = "message"

	// KindStatusUpdate marks a TaskStatusUpdateEvent.
	KindStatusUpdate = "status-update"

	// KindArtifactUpdate marks a TaskArtifactUpdateEvent.
	KindArtifactUpdate = "artifact-update"
)
