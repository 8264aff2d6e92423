// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"gorm.io/gorm"

	a2a "github.com/go-a2a/a2a-core"
)

// TaskRecord is the database row backing a persisted task. Status state
// and context ID are denormalized for querying; the full task is kept as
// a JSON document so the schema does not chase the wire types.
type TaskRecord struct {
	ID        string    `gorm:"primaryKey;size:255"`
	ContextID string    `gorm:"index;size:255"`
	State     string    `gorm:"index;size:32"`
	Data      []byte    `gorm:"type:blob"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName implements the GORM table naming convention.
func (TaskRecord) TableName() string { return "a2a_tasks" }

func newTaskRecord(task *a2a.Task) (*TaskRecord, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	return &TaskRecord{
		ID:        task.ID,
		ContextID: task.ContextID,
		State:     string(task.Status.State),
		Data:      data,
	}, nil
}

func (r *TaskRecord) toTask() (*a2a.Task, error) {
	var task a2a.Task
	if err := json.Unmarshal(r.Data, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", r.ID, err)
	}
	return &task, nil
}

// DatabaseStore is a GORM-backed [Store]. The caller supplies the open
// *gorm.DB so driver selection stays outside the core.
type DatabaseStore struct {
	db *gorm.DB
}

var _ Store = (*DatabaseStore)(nil)

// NewDatabaseStore creates a DatabaseStore over an open connection.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}
	return &DatabaseStore{db: db}, nil
}

// Initialize implements [Store]. It migrates the task table.
func (s *DatabaseStore) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&TaskRecord{}); err != nil {
		return fmt.Errorf("migrate task table: %w", err)
	}
	return nil
}

// Get implements [Store].
func (s *DatabaseStore) Get(ctx context.Context, taskID string) (*a2a.Task, error) {
	if taskID == "" {
		return nil, a2a.NewInvalidParamsError("task ID cannot be empty")
	}

	var record TaskRecord
	err := s.db.WithContext(ctx).Where("id = ?", taskID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, a2a.NewTaskNotFoundError(taskID)
		}
		return nil, fmt.Errorf("query task %s: %w", taskID, err)
	}
	return record.toTask()
}

// Save implements [Store].
func (s *DatabaseStore) Save(ctx context.Context, task *a2a.Task) error {
	if task == nil || task.ID == "" {
		return a2a.NewInvalidParamsError("task ID cannot be empty")
	}

	record, err := newTaskRecord(task)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("save task %s: %w", task.ID, err)
	}
	return nil
}

// Delete implements [Store].
func (s *DatabaseStore) Delete(ctx context.Context, taskID string) error {
	if taskID == "" {
		return a2a.NewInvalidParamsError("task ID cannot be empty")
	}

	if err := s.db.WithContext(ctx).Where("id = ?", taskID).Delete(&TaskRecord{}).Error; err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

// List implements [Store].
func (s *DatabaseStore) List(ctx context.Context) ([]*a2a.Task, error) {
	var records []TaskRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*a2a.Task, 0, len(records))
	for i := range records {
		task, err := records[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListByContext returns the tasks of one context in creation order.
func (s *DatabaseStore) ListByContext(ctx context.Context, contextID string) ([]*a2a.Task, error) {
	if contextID == "" {
		return nil, a2a.NewInvalidParamsError("context ID cannot be empty")
	}

	var records []TaskRecord
	err := s.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks for context %s: %w", contextID, err)
	}

	tasks := make([]*a2a.Task, 0, len(records))
	for i := range records {
		task, err := records[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Close implements [Store]. The connection belongs to the caller, so
// nothing is closed here.
func (s *DatabaseStore) Close() error {
	return nil
}
