// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"sync"

	a2a "github.com/go-a2a/a2a-core"
)

// InMemoryStore is a map-backed [Store]. Tasks are deep-copied on both
// Save and Get so callers never share mutable state with the store.
type InMemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tasks: make(map[string]*a2a.Task),
	}
}

// Initialize implements [Store]. It is a no-op for the in-memory store.
func (s *InMemoryStore) Initialize(ctx context.Context) error {
	return nil
}

// Get implements [Store].
func (s *InMemoryStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, a2a.NewTaskNotFoundError(taskID)
	}
	return task.Clone(), nil
}

// Save implements [Store].
func (s *InMemoryStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil || task.ID == "" {
		return a2a.NewInvalidParamsError("task ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete implements [Store].
func (s *InMemoryStore) Delete(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tasks, taskID)
	return nil
}

// List implements [Store].
func (s *InMemoryStore) List(ctx context.Context) ([]*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*a2a.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task.Clone())
	}
	return tasks, nil
}

// Close implements [Store].
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*a2a.Task)
	return nil
}

// InMemoryPushConfigStore is a map-backed [PushConfigStore].
type InMemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string]*a2a.TaskPushNotificationConfig
}

var _ PushConfigStore = (*InMemoryPushConfigStore)(nil)

// NewInMemoryPushConfigStore creates an empty InMemoryPushConfigStore.
func NewInMemoryPushConfigStore() *InMemoryPushConfigStore {
	return &InMemoryPushConfigStore{
		configs: make(map[string]*a2a.TaskPushNotificationConfig),
	}
}

// SetConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) SetConfig(ctx context.Context, config *a2a.TaskPushNotificationConfig) error {
	if err := config.Validate(); err != nil {
		return a2a.NewInvalidParamsError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *config
	s.configs[config.TaskID] = &clone
	return nil
}

// GetConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) GetConfig(ctx context.Context, taskID string) (*a2a.TaskPushNotificationConfig, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, ok := s.configs[taskID]
	if !ok {
		return nil, false, nil
	}
	clone := *config
	return &clone, true, nil
}

// DeleteConfig implements [PushConfigStore].
func (s *InMemoryPushConfigStore) DeleteConfig(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.configs, taskID)
	return nil
}
