// Package common contains definitions of fundamental types and functions used
// across the store's components.
package common

import "math"

// SlotIndex is the position of a record in a [SlotTable].
type SlotIndex uint

const InvalidSlot = SlotIndex(math.MaxUint)
