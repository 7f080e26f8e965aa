package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetPutReplaces(t *testing.T) {
	s := NewSet(validDef("A", 5, 0), validDef("B", 6, 0))

	replaced := s.Put(validDef("a", 7, 0))
	assert.True(t, replaced)
	assert.Equal(t, 2, s.Len())

	all := s.All()
	assert.Equal(t, "B", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
	assert.Equal(t, uint8(7), all[1].StartHour)

	assert.False(t, s.Put(validDef("C", 8, 0)))
}

func TestSetFindDelete(t *testing.T) {
	s := NewSet(validDef("Lawn", 5, 0))

	d, ok := s.Find("LAWN")
	assert.True(t, ok)
	assert.Equal(t, "Lawn", d.Name)

	_, ok = s.Find("Beds")
	assert.False(t, ok)

	assert.Equal(t, 0, s.Delete("Beds"))
	assert.Equal(t, 1, s.Delete("lawn"))
	assert.Equal(t, 0, s.Len())
}

func TestSetSorted(t *testing.T) {
	s := NewSet(validDef("C", 1, 0), validDef("A", 2, 0), validDef("B", 3, 0))

	var names []string
	for _, d := range s.Sorted() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
	assert.Equal(t, "C", s.All()[0].Name, "Sorted must not reorder the set")
}

func TestSetCopies(t *testing.T) {
	s := NewSet(validDef("A", 1, 0))

	d, _ := s.Find("A")
	d.Items[0].RunTime = 50

	again, _ := s.Find("A")
	assert.Equal(t, uint8(10), again.Items[0].RunTime)

	s.Clear()
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
