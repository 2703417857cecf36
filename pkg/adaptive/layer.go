// ABOUTME: Named mixing layers shared across tracks
// ABOUTME: Each layer carries a gain and a random inclusion chance
package adaptive

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Layer groups clip files for shared gain and random inclusion
type Layer struct {
	id     int
	name   atomic.Pointer[string]
	gain   atomic.Uint32 // float32 bits
	chance atomic.Int32
}

func newLayer(id int, name string) *Layer {
	l := &Layer{id: id}
	l.name.Store(&name)
	l.SetGain(1)
	l.chance.Store(100)
	return l
}

// ID returns the registration ordinal
func (l *Layer) ID() int { return l.id }

// Name returns the layer name
func (l *Layer) Name() string { return *l.name.Load() }

// Gain returns the layer gain
func (l *Layer) Gain() float32 { return math.Float32frombits(l.gain.Load()) }

// SetGain sets the layer gain
func (l *Layer) SetGain(g float32) { l.gain.Store(math.Float32bits(g)) }

// RandomChance returns the inclusion chance in percent
func (l *Layer) RandomChance() int { return int(l.chance.Load()) }

// SetRandomChance sets the inclusion chance, clamped to 0-100
func (l *Layer) SetRandomChance(chance int) {
	l.chance.Store(int32(clamp(chance, 0, 100)))
}

// Layers is the registry of all layers. Layers are never removed.
type Layers struct {
	mu     sync.Mutex
	byName map[string]*Layer
	list   []*Layer
}

// NewLayers returns an empty registry
func NewLayers() *Layers {
	return &Layers{byName: make(map[string]*Layer)}
}

// Get returns the named layer, creating it on first use
func (r *Layers) Get(name string) *Layer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.byName[name]; ok {
		return l
	}
	l := newLayer(len(r.list), name)
	r.byName[name] = l
	r.list = append(r.list, l)
	return l
}

// Lookup returns the named layer if it exists
func (r *Layers) Lookup(name string) (*Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byName[name]
	return l, ok
}

// Names returns the layer names in registration order
func (r *Layers) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.list))
	for i, l := range r.list {
		names[i] = l.Name()
	}
	return names
}

// Rename changes the name of a layer
func (r *Layers) Rename(name, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("layer %q: %w", name, ErrNotFound)
	}
	if _, taken := r.byName[newName]; taken {
		return fmt.Errorf("layer %q already exists", newName)
	}
	delete(r.byName, name)
	r.byName[newName] = l
	l.name.Store(&newName)
	return nil
}
