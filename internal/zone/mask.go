package zone

import (
	"slices"
	"sync"
)

// Mask is the active set of zones plus an optional background sound.
//
// Lookups scan zones newest first, so where zones overlap the most recently
// inserted one wins. Mask is safe for concurrent use; writers take priority
// over new readers.
type Mask struct {
	mu         sync.RWMutex
	values     map[SoundZone]ZoneValue
	order      []SoundZone // insertion order, oldest first
	background string
}

// NewMask creates an empty mask.
func NewMask() *Mask {
	return &Mask{values: make(map[SoundZone]ZoneValue)}
}

// Put inserts z or replaces its value. A replaced zone becomes the newest.
func (m *Mask) Put(z SoundZone, v ZoneValue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[z]; ok {
		m.order = slices.DeleteFunc(m.order, func(o SoundZone) bool { return o == z })
	}
	m.values[z] = v
	m.order = append(m.order, z)
}

// SetValue changes the value of an existing zone without changing its
// position in the lookup order. It reports false if z is not in the mask.
func (m *Mask) SetValue(z SoundZone, v ZoneValue) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.values[z]; !ok {
		return false
	}
	m.values[z] = v
	return true
}

// Remove deletes z and returns its value.
func (m *Mask) Remove(z SoundZone) (ZoneValue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[z]
	if !ok {
		return ZoneValue{}, false
	}
	delete(m.values, z)
	m.order = slices.DeleteFunc(m.order, func(o SoundZone) bool { return o == z })
	return v, true
}

// Get returns the value stored for z.
func (m *Mask) Get(z SoundZone) (ZoneValue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[z]
	return v, ok
}

// Has reports whether z is in the mask.
func (m *Mask) Has(z SoundZone) bool {
	_, ok := m.Get(z)
	return ok
}

// ZoneFor returns the zone containing c. Overlaps resolve to the newest zone.
func (m *Mask) ZoneFor(c Cell) (SoundZone, ZoneValue, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.order) - 1; i >= 0; i-- {
		z := m.order[i]
		if z.Contains(c) {
			return z, m.values[z], true
		}
	}
	return SoundZone{}, ZoneValue{}, false
}

// SoundFor returns the sound of the zone containing c. Silent zones and
// cells outside every zone report false.
func (m *Mask) SoundFor(c Cell) (string, bool) {
	_, v, ok := m.ZoneFor(c)
	if !ok || v.Silent() {
		return "", false
	}
	return v.SoundName, true
}

// Entries returns a snapshot of all zones, oldest first.
func (m *Mask) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.order))
	for _, z := range m.order {
		entries = append(entries, Entry{Zone: z, Value: m.values[z]})
	}
	return entries
}

// Len returns the number of zones.
func (m *Mask) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// Clear removes every zone. The background is kept.
func (m *Mask) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[SoundZone]ZoneValue)
	m.order = nil
}

// Replace swaps the mask contents for entries and background in one step.
// Duplicate zones keep the last value given.
func (m *Mask) Replace(entries []Entry, background string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[SoundZone]ZoneValue, len(entries))
	m.order = m.order[:0]
	for _, e := range entries {
		if _, ok := m.values[e.Zone]; ok {
			m.order = slices.DeleteFunc(m.order, func(o SoundZone) bool { return o == e.Zone })
		}
		m.values[e.Zone] = e.Value
		m.order = append(m.order, e.Zone)
	}
	m.background = background
}

// Background returns the background sound file name, empty if none.
func (m *Mask) Background() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.background
}

// SetBackground sets the background sound file name.
func (m *Mask) SetBackground(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.background = name
}
