// ABOUTME: Condition store and trigger evaluation
// ABOUTME: Lock-free reads for the mixer, copy-on-write updates from the host
package adaptive

import (
	"sync"
	"sync/atomic"
)

// Reserved condition ids
const (
	CondTension  = 1
	CondMainLoop = 2

	// CondUser is the first id available to callers
	CondUser = 100
)

// CondType selects how a trigger compares against the store
type CondType int

const (
	CondEqual CondType = iota
	CondGreater
	CondLess
	CondRange
)

func (t CondType) String() string {
	switch t {
	case CondEqual:
		return "equal"
	case CondGreater:
		return "greater"
	case CondLess:
		return "less"
	case CondRange:
		return "range"
	}
	return "unknown"
}

// Trigger gates a clip on a condition value
type Trigger struct {
	ID     int
	Type   CondType
	Value  int
	Value2 int
}

// Conditions maps condition ids to values. Unset ids read as 0.
// Reads never lock; writes replace the whole map.
type Conditions struct {
	mu     sync.Mutex
	values atomic.Pointer[map[int]int]
}

// NewConditions returns an empty store
func NewConditions() *Conditions {
	c := &Conditions{}
	m := map[int]int{}
	c.values.Store(&m)
	return c
}

// Get returns the value of id
func (c *Conditions) Get(id int) int {
	return (*c.values.Load())[id]
}

// Set stores value for id
func (c *Conditions) Set(id, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := *c.values.Load()
	if v, ok := old[id]; ok && v == value {
		return
	}

	m := make(map[int]int, len(old)+1)
	for k, v := range old {
		m[k] = v
	}
	m[id] = value
	c.values.Store(&m)
}

// Reset clears every condition
func (c *Conditions) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := map[int]int{}
	c.values.Store(&m)
}

// Snapshot returns a copy of all set conditions
func (c *Conditions) Snapshot() map[int]int {
	old := *c.values.Load()
	m := make(map[int]int, len(old))
	for k, v := range old {
		m[k] = v
	}
	return m
}

// Evaluate reports whether trigger holds against store. A nil trigger always holds.
// A range with Value greater than Value2 never holds.
func Evaluate(trigger *Trigger, store *Conditions) bool {
	if trigger == nil {
		return true
	}

	v := store.Get(trigger.ID)
	switch trigger.Type {
	case CondEqual:
		return v == trigger.Value
	case CondGreater:
		return v > trigger.Value
	case CondLess:
		return v < trigger.Value
	case CondRange:
		return v >= trigger.Value && v <= trigger.Value2
	}
	return false
}
