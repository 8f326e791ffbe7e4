package local

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// MemoryStore is an in-memory Store for tests and dry-run overlays.
type MemoryStore struct {
	mu         sync.Mutex
	containers map[string]map[string]*Container // project -> path -> container
	tasks      map[string]*Task                 // id -> task
	taskOrder  []string
	projectOf  map[string]string // task id -> project
	failures   map[string]error
	calls      map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]map[string]*Container),
		tasks:      make(map[string]*Task),
		projectOf:  make(map[string]string),
		failures:   make(map[string]error),
		calls:      make(map[string]int),
	}
}

// AddContainer registers a folder and returns it.
func (m *MemoryStore) AddContainer(projectName, folderPath string) Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	folderPath = NormalizePath(folderPath)
	if m.containers[projectName] == nil {
		m.containers[projectName] = make(map[string]*Container)
	}
	if c, ok := m.containers[projectName][folderPath]; ok {
		return *c
	}
	c := &Container{ID: NewEntityID(), Name: path.Base(folderPath), Path: folderPath}
	m.containers[projectName][folderPath] = c
	return *c
}

// SeedTask stores a task directly and returns its ID.
func (m *MemoryStore) SeedTask(projectName string, task Task) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(projectName, task)
}

func (m *MemoryStore) insert(projectName string, task Task) string {
	if task.ID == "" {
		task.ID = NewEntityID()
	}
	task.Data = cloneData(task.Data)
	m.tasks[task.ID] = &task
	m.taskOrder = append(m.taskOrder, task.ID)
	m.projectOf[task.ID] = projectName
	return task.ID
}

// FailNext makes the next call of op (a Store method name) return err.
func (m *MemoryStore) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

// Calls returns how often op was called.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryStore) enter(op string) error {
	m.calls[op]++
	if err, ok := m.failures[op]; ok {
		delete(m.failures, op)
		return err
	}
	return nil
}

// GetContainerByPath implements Store.
func (m *MemoryStore) GetContainerByPath(ctx context.Context, projectName, folderPath string) (*Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetContainerByPath"); err != nil {
		return nil, err
	}
	folderPath = NormalizePath(folderPath)
	c, ok := m.containers[projectName][folderPath]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", folderPath, ErrNotFound)
	}
	copied := *c
	return &copied, nil
}

// ListTasks implements Store.
func (m *MemoryStore) ListTasks(ctx context.Context, projectName, containerID string) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListTasks"); err != nil {
		return nil, err
	}
	var out []Task
	for _, id := range m.taskOrder {
		t := m.tasks[id]
		if m.projectOf[id] != projectName || t.ContainerID != containerID {
			continue
		}
		copied := *t
		copied.Data = cloneData(t.Data)
		out = append(out, copied)
	}
	return out, nil
}

// CreateTask implements Store. Task names are unique per container.
func (m *MemoryStore) CreateTask(ctx context.Context, projectName, name, taskType, containerID string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateTask"); err != nil {
		return "", err
	}
	for _, id := range m.taskOrder {
		t := m.tasks[id]
		if m.projectOf[id] == projectName && t.ContainerID == containerID && t.Name == name {
			return "", fmt.Errorf("task %s already exists in folder %s", name, containerID)
		}
	}
	return m.insert(projectName, Task{Name: name, TaskType: taskType, ContainerID: containerID, Data: data}), nil
}

// UpdateTask implements Store.
func (m *MemoryStore) UpdateTask(ctx context.Context, projectName, taskID string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateTask"); err != nil {
		return err
	}
	t, ok := m.tasks[taskID]
	if !ok || m.projectOf[taskID] != projectName {
		return fmt.Errorf("task %s does not exist", taskID)
	}
	t.Data = cloneData(data)
	return nil
}

// Task returns a stored task by ID.
func (m *MemoryStore) Task(id string) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	copied := *t
	copied.Data = cloneData(t.Data)
	return copied, true
}

// Tasks returns every task in creation order.
func (m *MemoryStore) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.taskOrder))
	for _, id := range m.taskOrder {
		copied := *m.tasks[id]
		copied.Data = cloneData(copied.Data)
		out = append(out, copied)
	}
	return out
}
