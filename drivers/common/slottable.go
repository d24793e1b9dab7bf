// Fixed-capacity slot tables

package common

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/secs-dev/vtfs/errors"
)

// SlotTable is a fixed-size array of records with an in-use bit for each one.
// It never grows: when every slot is taken, allocation fails with ENOSPC.
// Scans always go from the lowest index up, so allocation order and lookup
// results are deterministic.
//
// SlotTable isn't safe for concurrent use; its owner serializes access.
type SlotTable[T any] struct {
	inUse   bitmap.Bitmap
	records []T
	used    uint
}

// NewSlotTable creates a table with `capacity` free slots.
func NewSlotTable[T any](capacity uint) *SlotTable[T] {
	return &SlotTable[T]{
		inUse:   bitmap.New(int(capacity)),
		records: make([]T, capacity),
	}
}

// Cap returns the total number of slots.
func (table *SlotTable[T]) Cap() uint {
	return uint(len(table.records))
}

// Len returns the number of slots in use.
func (table *SlotTable[T]) Len() uint {
	return table.used
}

// Free returns the number of unused slots.
func (table *SlotTable[T]) Free() uint {
	return table.Cap() - table.used
}

// InUse reports whether the slot at `index` holds a live record.
func (table *SlotTable[T]) InUse(index SlotIndex) bool {
	if index >= SlotIndex(len(table.records)) {
		return false
	}
	return table.inUse.Get(int(index))
}

// Allocate reserves the first available slot and returns its index. The record
// in it is the zero value of T. If no slots are available, it returns ENOSPC.
func (table *SlotTable[T]) Allocate() (SlotIndex, *T, error) {
	for i := 0; i < len(table.records); i++ {
		if !table.inUse.Get(i) {
			table.inUse.Set(i, true)
			table.used++
			return SlotIndex(i), &table.records[i], nil
		}
	}

	return InvalidSlot, nil, errors.ErrNoSpaceOnDevice.WithMessage(
		fmt.Sprintf("all %d slots are in use", len(table.records)),
	)
}

// Get returns the record at `index` if the slot is in use.
func (table *SlotTable[T]) Get(index SlotIndex) (*T, bool) {
	if !table.InUse(index) {
		return nil, false
	}
	return &table.records[index], true
}

// Find returns the first in-use slot for which `predicate` is true.
func (table *SlotTable[T]) Find(predicate func(SlotIndex, *T) bool) (SlotIndex, *T, bool) {
	for i := 0; i < len(table.records); i++ {
		if table.inUse.Get(i) && predicate(SlotIndex(i), &table.records[i]) {
			return SlotIndex(i), &table.records[i], true
		}
	}
	return InvalidSlot, nil, false
}

// Each calls `fn` for every in-use slot in index order until it returns false.
// `fn` must not allocate or free slots.
func (table *SlotTable[T]) Each(fn func(SlotIndex, *T) bool) {
	for i := 0; i < len(table.records); i++ {
		if table.inUse.Get(i) && !fn(SlotIndex(i), &table.records[i]) {
			return
		}
	}
}

// Release frees an allocated slot and resets its record to the zero value, so
// nothing of the old record is visible to the next allocation of the slot.
// Trying to free a slot that isn't allocated will return the errno code
// EALREADY.
func (table *SlotTable[T]) Release(index SlotIndex) error {
	if index >= SlotIndex(len(table.records)) {
		msg := fmt.Sprintf(
			"invalid slot: %d not in range [0, %d)",
			index,
			len(table.records))
		return errors.ErrInvalidArgument.WithMessage(msg)
	}
	if !table.inUse.Get(int(index)) {
		msg := fmt.Sprintf("slot %d is already free", index)
		return errors.ErrAlreadyInProgress.WithMessage(msg)
	}

	var zero T
	table.records[index] = zero
	table.inUse.Set(int(index), false)
	table.used--
	return nil
}
