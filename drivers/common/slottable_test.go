package common_test

import (
	"testing"

	"github.com/secs-dev/vtfs"
	"github.com/secs-dev/vtfs/drivers/common"
	"github.com/secs-dev/vtfs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	name  string
	value int
}

func TestSlotTableAllocateLowestFirst(t *testing.T) {
	table := common.NewSlotTable[record](4)

	for i := 0; i < 4; i++ {
		index, rec, err := table.Allocate()
		require.NoErrorf(t, err, "allocation %d failed", i)
		assert.EqualValues(t, i, index, "slots must be handed out lowest index first")
		rec.value = i
	}
	assert.EqualValues(t, 4, table.Len())
	assert.EqualValues(t, 0, table.Free())

	// Free a slot in the middle; it must be the next one allocated.
	require.NoError(t, table.Release(1))
	index, _, err := table.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 1, index)
}

func TestSlotTableFull(t *testing.T) {
	table := common.NewSlotTable[record](2)
	_, _, err := table.Allocate()
	require.NoError(t, err)
	_, _, err = table.Allocate()
	require.NoError(t, err)

	index, rec, err := table.Allocate()
	assert.ErrorIs(t, err, vtfs.ErrNoSpaceOnDevice)
	assert.Equal(t, common.InvalidSlot, index)
	assert.Nil(t, rec)
}

func TestSlotTableReleaseClearsRecord(t *testing.T) {
	table := common.NewSlotTable[record](1)
	index, rec, err := table.Allocate()
	require.NoError(t, err)
	rec.name = "secret"
	rec.value = 42

	require.NoError(t, table.Release(index))
	_, ok := table.Get(index)
	assert.False(t, ok, "released slot must not be readable")

	index, rec, err = table.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, 0, index)
	assert.Equal(t, record{}, *rec, "stale data leaked into a reallocated slot")
}

func TestSlotTableReleaseErrors(t *testing.T) {
	table := common.NewSlotTable[record](2)

	err := table.Release(5)
	assert.ErrorIs(t, err, vtfs.ErrInvalidArgument)

	err = table.Release(0)
	require.Error(t, err)
	assert.Equal(t, errors.EALREADY, vtfs.ErrnoOf(err))
}

func TestSlotTableFindFirstMatch(t *testing.T) {
	table := common.NewSlotTable[record](5)
	for _, value := range []int{3, 7, 3, 9} {
		_, rec, err := table.Allocate()
		require.NoError(t, err)
		rec.value = value
	}
	require.NoError(t, table.Release(0))

	index, rec, ok := table.Find(func(_ common.SlotIndex, r *record) bool {
		return r.value == 3
	})
	require.True(t, ok)
	assert.EqualValues(t, 2, index, "freed slot 0 must be skipped")
	assert.Equal(t, 3, rec.value)

	_, _, ok = table.Find(func(_ common.SlotIndex, r *record) bool {
		return r.value == 100
	})
	assert.False(t, ok)
}

func TestSlotTableEachStopsEarly(t *testing.T) {
	table := common.NewSlotTable[record](5)
	for i := 0; i < 5; i++ {
		_, rec, err := table.Allocate()
		require.NoError(t, err)
		rec.value = i
	}
	require.NoError(t, table.Release(2))

	var seen []int
	table.Each(func(_ common.SlotIndex, r *record) bool {
		seen = append(seen, r.value)
		return len(seen) < 3
	})
	assert.Equal(t, []int{0, 1, 3}, seen)
}
