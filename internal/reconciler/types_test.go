package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrossReferenceMap(t *testing.T) {
	m := CrossReferenceMap{}
	m.Set("C1", "T1", "KAN-1")
	m.Merge("C2", map[string]string{"T1": "KAN-2", "T2": "KAN-3"})

	key, ok := m.Lookup("C1", "T1")
	assert.True(t, ok)
	assert.Equal(t, "KAN-1", key)

	key, ok = m.Lookup("C2", "T1")
	assert.True(t, ok)
	assert.Equal(t, "KAN-2", key)

	_, ok = m.Lookup("C1", "T2")
	assert.False(t, ok)
	_, ok = m.Lookup("C3", "T1")
	assert.False(t, ok)

	slice := m.Scope("C2")
	slice["T1"] = "mutated"
	key, _ = m.Lookup("C2", "T1")
	assert.Equal(t, "KAN-2", key, "Scope returns a copy")

	assert.Equal(t, []string{"C1", "C2"}, m.Scopes())
}

func TestObservers(t *testing.T) {
	var got []ChangeEvent
	obs := Observers{
		ObserverFunc(func(e ChangeEvent) { got = append(got, e) }),
		nil,
		ObserverFunc(func(e ChangeEvent) { got = append(got, e) }),
	}

	notify(obs, ChangeEvent{Kind: KindTask, Operation: OperationCreate})
	assert.Len(t, got, 2)
	assert.False(t, got[0].Timestamp.IsZero(), "timestamp is filled in")

	notify(nil, ChangeEvent{})
}
