// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-core"
)

func newTestTask(id string) *a2a.Task {
	msg := a2a.NewUserMessage(a2a.NewTextPart("hello"))
	return a2a.NewTask(id, "ctx-1", msg)
}

func TestInMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	original := newTestTask("task-1")
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(original, got); diff != "" {
		t.Errorf("Task mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "ghost")
	if !errors.Is(err, a2a.NewTaskNotFoundError("ghost")) {
		t.Errorf("Expected a task not found error, got %v", err)
	}
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	original := newTestTask("task-1")
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating what we saved or what we read must not leak into the store.
	original.ApplyStatus(a2a.TaskStateCompleted, nil)

	first, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	first.ApplyStatus(a2a.TaskStateFailed, nil)

	second, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if second.Status.State != a2a.TaskStateSubmitted {
		t.Errorf("Expected the stored task untouched, got state %s", second.Status.State)
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	if err := store.Save(ctx, newTestTask("task-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "task-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "task-1"); err == nil {
		t.Error("Expected the task gone after delete")
	}

	// Deleting an absent task is not an error.
	if err := store.Delete(ctx, "ghost"); err != nil {
		t.Errorf("Expected no error deleting an absent task, got %v", err)
	}
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	for _, id := range []string{"task-1", "task-2", "task-3"} {
		if err := store.Save(ctx, newTestTask(id)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	tasks, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("Expected 3 tasks, got %d", len(tasks))
	}
}

func TestTaskRecordRoundTrip(t *testing.T) {
	original := newTestTask("task-1")
	original.ApplyStatus(a2a.TaskStateWorking, nil)
	original.AddArtifact(a2a.NewTextArtifact("report", "content"), false)

	record, err := newTaskRecord(original)
	if err != nil {
		t.Fatalf("newTaskRecord failed: %v", err)
	}
	if record.ID != "task-1" || record.ContextID != "ctx-1" {
		t.Errorf("Expected denormalized identifiers, got %s/%s", record.ID, record.ContextID)
	}
	if record.State != string(a2a.TaskStateWorking) {
		t.Errorf("Expected denormalized state working, got %s", record.State)
	}

	decoded, err := record.toTask()
	if err != nil {
		t.Fatalf("toTask failed: %v", err)
	}
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryPushConfigStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryPushConfigStore()

	if _, ok, err := store.GetConfig(ctx, "task-1"); err != nil || ok {
		t.Fatalf("Expected no config initially, got ok=%v err=%v", ok, err)
	}

	config := &a2a.TaskPushNotificationConfig{
		TaskID: "task-1",
		PushNotificationConfig: a2a.PushNotificationConfig{
			URL:   "https://example.com/hook",
			Token: "secret",
		},
	}
	if err := store.SetConfig(ctx, config); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	got, ok, err := store.GetConfig(ctx, "task-1")
	if err != nil || !ok {
		t.Fatalf("Expected the config back, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(config, got); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}

	if err := store.DeleteConfig(ctx, "task-1"); err != nil {
		t.Fatalf("DeleteConfig failed: %v", err)
	}
	if _, ok, _ := store.GetConfig(ctx, "task-1"); ok {
		t.Error("Expected the config gone after delete")
	}
}

func TestInMemoryPushConfigStore_RejectsInvalid(t *testing.T) {
	store := NewInMemoryPushConfigStore()

	err := store.SetConfig(context.Background(), &a2a.TaskPushNotificationConfig{TaskID: "task-1"})
	if err == nil {
		t.Error("Expected a validation error for a config without URL")
	}
}
