package local

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Containers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	c := m.AddContainer("Show", "/Characters/Character1/")
	assert.Equal(t, "Character1", c.Name)
	assert.Equal(t, "Characters/Character1", c.Path)
	assert.Equal(t, c, m.AddContainer("Show", "Characters/Character1"), "adding twice returns the same folder")

	got, err := m.GetContainerByPath(ctx, "Show", "Characters/Character1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = m.GetContainerByPath(ctx, "Show", "Characters/Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetContainerByPath(ctx, "Other", "Characters/Character1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Tasks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	c1 := m.AddContainer("Show", "Characters/Character1")
	c2 := m.AddContainer("Show", "Characters/Character2")

	id, err := m.CreateTask(ctx, "Show", "Rigging", "Rigging", c1.ID, map[string]any{"outfit_ticket": "KAN-2"})
	require.NoError(t, err)
	assert.Len(t, id, 32)

	_, err = m.CreateTask(ctx, "Show", "Rigging", "Rigging", c1.ID, nil)
	assert.Error(t, err, "task names are unique per folder")

	_, err = m.CreateTask(ctx, "Show", "Rigging", "Rigging", c2.ID, nil)
	require.NoError(t, err)

	tasks, err := m.ListTasks(ctx, "Show", c1.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "KAN-2", tasks[0].Data["outfit_ticket"])

	require.NoError(t, m.UpdateTask(ctx, "Show", id, map[string]any{"outfit_ticket": "KAN-3"}))
	task, ok := m.Task(id)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"outfit_ticket": "KAN-3"}, task.Data)

	assert.Error(t, m.UpdateTask(ctx, "Show", "missing", nil))
	assert.Len(t, m.Tasks(), 2)
}

func TestMemoryStore_FailNext(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	boom := errors.New("boom")
	m.FailNext("ListTasks", boom)

	_, err := m.ListTasks(ctx, "Show", "x")
	assert.ErrorIs(t, err, boom)
	_, err = m.ListTasks(ctx, "Show", "x")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Calls("ListTasks"))
}
