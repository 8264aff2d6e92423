// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package task provides task persistence: the Store contract, an
// in-memory implementation, and a database-backed implementation.
package task

import (
	"context"

	a2a "github.com/go-a2a/a2a-core"
)

// Store persists tasks. Implementations must be safe for concurrent use
// and must return copies that callers can mutate freely; the lifecycle
// engine owns per-task write serialization above this layer.
type Store interface {
	// Initialize prepares the backing storage (schema migration,
	// connectivity checks). Safe to call more than once.
	Initialize(ctx context.Context) error

	// Get retrieves a task by ID. Returns [a2a.ErrorCodeTaskNotFound]
	// when the task does not exist.
	Get(ctx context.Context, taskID string) (*a2a.Task, error)

	// Save inserts or replaces a task.
	Save(ctx context.Context, task *a2a.Task) error

	// Delete removes a task. Deleting an absent task is not an error.
	Delete(ctx context.Context, taskID string) error

	// List returns all stored tasks in unspecified order.
	List(ctx context.Context) ([]*a2a.Task, error)

	// Close releases resources held by the store.
	Close() error
}

// PushConfigStore persists per-task push notification configurations.
type PushConfigStore interface {
	// SetConfig registers or replaces the push configuration of a task.
	SetConfig(ctx context.Context, config *a2a.TaskPushNotificationConfig) error

	// GetConfig retrieves the push configuration of a task. The second
	// return value reports whether a configuration exists.
	GetConfig(ctx context.Context, taskID string) (*a2a.TaskPushNotificationConfig, bool, error)

	// DeleteConfig removes the push configuration of a task.
	DeleteConfig(ctx context.Context, taskID string) error
}
