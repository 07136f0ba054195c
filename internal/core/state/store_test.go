package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	value   map[string]any
	present bool
}

func record(s *Map) *[]event {
	var events []event
	s.Subscribe(func(v map[string]any, present bool) {
		events = append(events, event{value: v, present: present})
	})
	return &events
}

// =============================================================================
// Set / Get / Clear
// =============================================================================

func TestStore_EmptyByDefault(t *testing.T) {
	s := NewMap()
	v, ok := s.Get()
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestStore_SetThenGet(t *testing.T) {
	s := NewMap()
	events := record(s)

	a := map[string]any{"x": 0, "y": 2}
	s.Set(a)

	v, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, a, v)
	assert.Equal(t, []event{{value: a, present: true}}, *events)
}

func TestStore_SetReplacesWholeEntity(t *testing.T) {
	s := NewMap()
	s.Set(map[string]any{"x": 0, "y": 2})
	s.Set(map[string]any{"z": 3})

	v, _ := s.Get()
	assert.Equal(t, map[string]any{"z": 3}, v)
}

func TestStore_ClearAfterSet(t *testing.T) {
	s := NewMap()
	s.Set(map[string]any{"x": 1})
	events := record(s)

	s.Clear()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Equal(t, []event{{present: false}}, *events)
}

func TestStore_ClearIsIdempotentButAlwaysNotifies(t *testing.T) {
	s := NewMap()
	events := record(s)

	s.Clear()
	s.Clear()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Len(t, *events, 2)
}

// =============================================================================
// Update
// =============================================================================

func TestStore_UpdateMergesShallowly(t *testing.T) {
	s := NewMap()
	held := map[string]any{"x": 0, "y": 2}
	s.Set(held)
	events := record(s)

	s.Update(map[string]any{"x": 1})

	v, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, v)
	assert.Equal(t, map[string]any{"x": 0, "y": 2}, held, "held value must not be mutated")
	assert.Len(t, *events, 1)
}

func TestStore_UpdateWithEmptyPatchNotifiesWithSameFields(t *testing.T) {
	s := NewMap()
	s.Set(map[string]any{"x": 0})
	events := record(s)

	s.Update(map[string]any{})

	require.Len(t, *events, 1)
	assert.Equal(t, map[string]any{"x": 0}, (*events)[0].value)
}

func TestStore_UpdateWithoutEntityIsSilentNoOp(t *testing.T) {
	s := NewMap()
	events := record(s)

	s.Update(map[string]any{"x": 1})

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, *events)
}

func TestStore_UpdateAfterClearIsNoOp(t *testing.T) {
	s := NewMap()
	s.Set(map[string]any{"x": 1})
	s.Clear()

	s.Update(map[string]any{"x": 2})

	_, ok := s.Get()
	assert.False(t, ok)
}

func TestStore_TypedPatch(t *testing.T) {
	type profile struct {
		Name  string
		Phone string
	}
	type patch struct {
		Name  *string
		Phone *string
	}
	s := New(func(p profile, u patch) profile {
		if u.Name != nil {
			p.Name = *u.Name
		}
		if u.Phone != nil {
			p.Phone = *u.Phone
		}
		return p
	})

	s.Set(profile{Name: "Asha", Phone: "9876543210"})
	name := "Asha R"
	s.Update(patch{Name: &name})

	v, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, profile{Name: "Asha R", Phone: "9876543210"}, v)
}

// =============================================================================
// Subscriptions
// =============================================================================

func TestStore_ListenersRunInSubscriptionOrder(t *testing.T) {
	s := NewMap()
	var order []string
	s.Subscribe(func(map[string]any, bool) { order = append(order, "first") })
	s.Subscribe(func(map[string]any, bool) { order = append(order, "second") })

	s.Set(map[string]any{})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := NewMap()
	calls := 0
	unsubscribe := s.Subscribe(func(map[string]any, bool) { calls++ })

	s.Set(map[string]any{})
	unsubscribe()
	unsubscribe()
	s.Clear()

	assert.Equal(t, 1, calls)
}

func TestStore_UnsubscribeDuringNotification(t *testing.T) {
	s := NewMap()
	var order []string
	var unsubscribeFirst func()
	unsubscribeFirst = s.Subscribe(func(map[string]any, bool) {
		order = append(order, "first")
		unsubscribeFirst()
	})
	s.Subscribe(func(map[string]any, bool) { order = append(order, "second") })

	s.Set(map[string]any{})
	s.Set(map[string]any{})

	assert.Equal(t, []string{"first", "second", "second"}, order)
}

func TestNew_NilMergePanics(t *testing.T) {
	assert.Panics(t, func() { New[int, int](nil) })
}
