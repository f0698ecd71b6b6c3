package xcluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriggerSetHas(t *testing.T) {
	s := NewTriggerSet(TriggerMovedRedirect, TriggerAskRedirect)
	assert.True(t, s.Has(TriggerMovedRedirect))
	assert.True(t, s.Has(TriggerAskRedirect))
	assert.False(t, s.Has(TriggerUncoveredSlot))
	assert.Equal(t, 2, s.Len())
}

func TestTriggerSetWith(t *testing.T) {
	s := NewTriggerSet(TriggerMovedRedirect)
	with := s.With(TriggerUncoveredSlot)

	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Has(TriggerUncoveredSlot))

	assert.Equal(t, 2, with.Len())
	assert.True(t, with.Has(TriggerMovedRedirect))
	assert.True(t, with.Has(TriggerUncoveredSlot))
}

func TestTriggerSetWithDuplicate(t *testing.T) {
	s := NewTriggerSet(TriggerMovedRedirect)
	with := s.With(TriggerMovedRedirect)
	assert.Equal(t, 1, with.Len())
}

func TestTriggerSetWithout(t *testing.T) {
	s := NewTriggerSet(TriggerMovedRedirect, TriggerUncoveredSlot)
	without := s.Without(TriggerUncoveredSlot)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(TriggerUncoveredSlot))

	assert.Equal(t, 1, without.Len())
	assert.True(t, without.Has(TriggerMovedRedirect))
	assert.False(t, without.Has(TriggerUncoveredSlot))
}

func TestTriggerSetWithoutMissing(t *testing.T) {
	s := NewTriggerSet(TriggerMovedRedirect)
	without := s.Without(TriggerUncoveredSlot)
	assert.Equal(t, 1, without.Len())
	assert.True(t, without.Has(TriggerMovedRedirect))
}

func TestTriggerSetZeroValue(t *testing.T) {
	var s TriggerSet
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(TriggerMovedRedirect))

	with := s.With(TriggerMovedRedirect)
	assert.Equal(t, 1, with.Len())
}
