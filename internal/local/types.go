// Package local is the production tracking capability consumed by the
// Local Reconciler: folder lookup and task create/update in AYON.
package local

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a container does not exist.
var ErrNotFound = errors.New("not found")

// Container is a folder that holds tasks.
type Container struct {
	ID   string
	Name string
	Path string
}

// Task is a work item under a container.
type Task struct {
	ID          string
	Name        string
	TaskType    string
	ContainerID string
	Data        map[string]any
}

// Store is the local system capability.
type Store interface {
	// GetContainerByPath resolves a folder path. It returns ErrNotFound
	// (possibly wrapped) when no folder exists at path.
	GetContainerByPath(ctx context.Context, projectName, path string) (*Container, error)
	// ListTasks returns the tasks directly under a container.
	ListTasks(ctx context.Context, projectName, containerID string) ([]Task, error)
	// CreateTask creates a task and returns its ID.
	CreateTask(ctx context.Context, projectName, name, taskType, containerID string, data map[string]any) (string, error)
	// UpdateTask replaces the data of an existing task.
	UpdateTask(ctx context.Context, projectName, taskID string, data map[string]any) error
}

// NewEntityID returns a new AYON entity ID: a UUID in hex without dashes.
func NewEntityID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizePath strips surrounding slashes from a folder path.
func NormalizePath(path string) string {
	return strings.Trim(path, "/")
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
