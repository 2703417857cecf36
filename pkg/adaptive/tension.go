// ABOUTME: Tension controller feeding the reserved tension condition
// ABOUTME: Saturating add, per-tick push with a rearm window, and nonlinear decay
package adaptive

import (
	"sync"
	"time"
)

const (
	maxTension = 100

	// tensionRearm is how long tension must sit at zero before zero is pushed again
	tensionRearm = 5000 * time.Millisecond
)

type tension struct {
	mu       sync.Mutex
	value    int
	active   bool
	lastPush time.Time
}

func (t *tension) add(v int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value = clamp(t.value+v, 0, maxTension)
	t.active = true
}

// set replaces the value and stops the decay ticks
func (t *tension) set(v int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value = clamp(v, 0, maxTension)
	t.active = false
	return t.value
}

func (t *tension) get() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

func (t *tension) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.value = 0
	t.active = false
	t.lastPush = time.Time{}
}

// tick pushes the value into conds and applies one decay step
func (t *tension) tick(now time.Time, conds *Conditions) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.active {
		return
	}

	if t.value > 0 {
		conds.Set(CondTension, t.value)
		t.lastPush = now
	} else if now.Sub(t.lastPush) >= tensionRearm {
		conds.Set(CondTension, 0)
		t.lastPush = now
	}

	t.value = decayTension(t.value)
}

func decayTension(v int) int {
	switch {
	case v >= 2:
		v -= (v + 20) / 10
		if v < 0 {
			v = 0
		}
	case v == 1:
		v = 0
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
