package cycle

import (
	"sort"
	"strings"
)

// SameName reports whether two cycle names refer to the same cycle.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Set is the ordered cycle collection. Order is insertion order and decides
// ties during projection. Set is not safe for concurrent use.
type Set struct {
	defs []Definition
}

// NewSet creates a set holding copies of defs.
func NewSet(defs ...Definition) *Set {
	s := &Set{}
	for _, d := range defs {
		s.Put(d)
	}
	return s
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	return len(s.defs)
}

// All returns copies of the definitions in insertion order.
func (s *Set) All() []Definition {
	out := make([]Definition, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Clone()
	}
	return out
}

// Sorted returns copies of the definitions ordered by name.
func (s *Set) Sorted() []Definition {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Find returns a copy of the named definition.
func (s *Set) Find(name string) (Definition, bool) {
	for _, d := range s.defs {
		if SameName(d.Name, name) {
			return d.Clone(), true
		}
	}
	return Definition{}, false
}

// Put adds d, first removing any definition with the same name.
// It reports whether an existing definition was replaced. The new
// definition is placed at the end of the order.
func (s *Set) Put(d Definition) bool {
	replaced := s.Delete(d.Name) > 0
	s.defs = append(s.defs, d.Clone())
	return replaced
}

// Delete removes every definition with the given name and returns how many
// were removed.
func (s *Set) Delete(name string) int {
	kept := s.defs[:0]
	removed := 0
	for _, d := range s.defs {
		if SameName(d.Name, name) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.defs = kept
	return removed
}

// Clear removes all definitions.
func (s *Set) Clear() {
	s.defs = nil
}
