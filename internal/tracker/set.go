package tracker

import (
	"slices"

	"github.com/ayusman/zonebeat/internal/pose"
)

// TrackedSet is the ordered set of landmark types that produce output.
// Iteration follows insertion order. It is not safe for concurrent use on
// its own; the Tracker serializes access to its set.
type TrackedSet struct {
	members []pose.Type
}

// NewTrackedSet creates a set holding types, duplicates ignored.
func NewTrackedSet(types ...pose.Type) *TrackedSet {
	s := &TrackedSet{}
	for _, t := range types {
		s.Enable(t)
	}
	return s
}

// Enable adds t. It reports whether the set changed.
func (s *TrackedSet) Enable(t pose.Type) bool {
	if !t.Valid() || s.Contains(t) {
		return false
	}
	s.members = append(s.members, t)
	return true
}

// Disable removes t. It reports whether the set changed.
func (s *TrackedSet) Disable(t pose.Type) bool {
	i := slices.Index(s.members, t)
	if i < 0 {
		return false
	}
	s.members = slices.Delete(s.members, i, i+1)
	return true
}

// Toggle inserts t if absent and removes it otherwise. It returns whether t
// is tracked afterwards.
func (s *TrackedSet) Toggle(t pose.Type) bool {
	if s.Disable(t) {
		return false
	}
	return s.Enable(t)
}

// Contains reports whether t is tracked.
func (s *TrackedSet) Contains(t pose.Type) bool {
	return slices.Contains(s.members, t)
}

// Members returns a copy of the tracked types in insertion order.
func (s *TrackedSet) Members() []pose.Type {
	return slices.Clone(s.members)
}

// Len returns the number of tracked types.
func (s *TrackedSet) Len() int {
	return len(s.members)
}
