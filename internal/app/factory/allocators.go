package factory

import "sync"

// TableAllocator hands out dine-in tables round-robin. It is shared by every
// dine-in construction, so it carries its own lock independent of any
// per-order exclusion. Releasing a table on completion belongs to floor
// management, not to the registry.
type TableAllocator struct {
	mu     sync.Mutex
	next   int
	tables int
}

// NewTableAllocator creates an allocator over tables 1..tables.
func NewTableAllocator(tables int) *TableAllocator {
	if tables < 1 {
		tables = 1
	}
	return &TableAllocator{tables: tables}
}

// Next returns the next table number, wrapping around after the last one.
func (a *TableAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	table := a.next%a.tables + 1
	a.next++
	return table
}

// LaneAllocator hands out drive-thru lanes round-robin, same discipline as
// tables.
type LaneAllocator struct {
	mu    sync.Mutex
	next  int
	lanes int
}

// NewLaneAllocator creates an allocator over lanes 1..lanes.
func NewLaneAllocator(lanes int) *LaneAllocator {
	if lanes < 1 {
		lanes = 1
	}
	return &LaneAllocator{lanes: lanes}
}

// Next returns the next lane number, wrapping around after the last one.
func (a *LaneAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	lane := a.next%a.lanes + 1
	a.next++
	return lane
}
