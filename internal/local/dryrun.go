package local

import (
	"context"
	"sync"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// DryRunStore reads from an underlying store and records writes instead of
// performing them. Tasks "created" during the dry run show up in later
// listings of the same run.
type DryRunStore struct {
	inner Store

	mu      sync.Mutex
	created []Task
	updates map[string]map[string]any
}

// NewDryRunStore wraps inner.
func NewDryRunStore(inner Store) *DryRunStore {
	return &DryRunStore{inner: inner, updates: make(map[string]map[string]any)}
}

// GetContainerByPath implements Store.
func (d *DryRunStore) GetContainerByPath(ctx context.Context, projectName, path string) (*Container, error) {
	return d.inner.GetContainerByPath(ctx, projectName, path)
}

// ListTasks implements Store.
func (d *DryRunStore) ListTasks(ctx context.Context, projectName, containerID string) ([]Task, error) {
	tasks, err := d.inner.ListTasks(ctx, projectName, containerID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range tasks {
		if data, ok := d.updates[tasks[i].ID]; ok {
			tasks[i].Data = cloneData(data)
		}
	}
	for _, t := range d.created {
		if t.ContainerID == containerID {
			t.Data = cloneData(t.Data)
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// CreateTask implements Store.
func (d *DryRunStore) CreateTask(ctx context.Context, projectName, name, taskType, containerID string, data map[string]any) (string, error) {
	id := NewEntityID()
	d.mu.Lock()
	d.created = append(d.created, Task{ID: id, Name: name, TaskType: taskType, ContainerID: containerID, Data: cloneData(data)})
	d.mu.Unlock()
	logging.Info("Ayon", "[dry-run] would create task %s (%s) in folder %s", name, taskType, containerID)
	return id, nil
}

// UpdateTask implements Store.
func (d *DryRunStore) UpdateTask(ctx context.Context, projectName, taskID string, data map[string]any) error {
	d.mu.Lock()
	d.updates[taskID] = cloneData(data)
	for i := range d.created {
		if d.created[i].ID == taskID {
			d.created[i].Data = cloneData(data)
		}
	}
	d.mu.Unlock()
	logging.Info("Ayon", "[dry-run] would update task %s", taskID)
	return nil
}

// Created returns the tasks that would have been created.
func (d *DryRunStore) Created() []Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Task(nil), d.created...)
}

// Updated returns the IDs of tasks that would have been updated.
func (d *DryRunStore) Updated() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.updates))
	for id := range d.updates {
		ids = append(ids, id)
	}
	return ids
}
