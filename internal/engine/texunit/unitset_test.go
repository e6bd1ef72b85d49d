package texunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitSet(t *testing.T) {
	s := NewUnitSet(3, 1, -2)
	assert.Equal(t, []int{1, 3}, s.Units())
	assert.Equal(t, 2, s.Len())

	assert.False(t, s.Add(1))
	assert.True(t, s.Add(0))
	assert.True(t, s.Remove(3))
	assert.False(t, s.Remove(3))
	assert.False(t, s.Contains(-1))

	free, ok := s.FirstFree(4)
	assert.True(t, ok)
	assert.Equal(t, 2, free)

	_, ok = NewUnitSet(0, 1).FirstFree(2)
	assert.False(t, ok)
}

func TestUnitSetUnionClone(t *testing.T) {
	a := NewUnitSet(0)
	b := NewUnitSet(2)

	c := a.Clone()
	c.Union(b)
	assert.Equal(t, []int{0, 2}, c.Units())
	assert.Equal(t, []int{0}, a.Units(), "clone does not alias")
	assert.True(t, NewUnitSet().IsEmpty())
}
