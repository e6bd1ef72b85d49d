package texunit

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// UnitSet is a set of texture image unit numbers backed by a roaring bitmap.
// It is not safe for concurrent use; the Registry guards its sets.
type UnitSet struct {
	rb *roaring.Bitmap
}

// NewUnitSet returns a set holding units. Negative units are ignored.
func NewUnitSet(units ...int) *UnitSet {
	s := &UnitSet{rb: roaring.New()}
	for _, u := range units {
		s.Add(u)
	}
	return s
}

// Add inserts u and reports whether it was absent.
func (s *UnitSet) Add(u int) bool {
	if u < 0 {
		return false
	}
	return s.rb.CheckedAdd(uint32(u))
}

// Remove deletes u and reports whether it was present.
func (s *UnitSet) Remove(u int) bool {
	if u < 0 {
		return false
	}
	return s.rb.CheckedRemove(uint32(u))
}

// Contains reports whether u is in the set.
func (s *UnitSet) Contains(u int) bool {
	return u >= 0 && s.rb.Contains(uint32(u))
}

// Len returns the number of units in the set.
func (s *UnitSet) Len() int {
	return int(s.rb.GetCardinality())
}

// IsEmpty reports whether the set holds no units.
func (s *UnitSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Union adds every unit of other to s.
func (s *UnitSet) Union(other *UnitSet) {
	s.rb.Or(other.rb)
}

// Clone returns a deep copy.
func (s *UnitSet) Clone() *UnitSet {
	return &UnitSet{rb: s.rb.Clone()}
}

// Units returns the members in ascending order.
func (s *UnitSet) Units() []int {
	out := make([]int, 0, s.Len())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// FirstFree returns the lowest unit in [0, limit) not in the set.
func (s *UnitSet) FirstFree(limit int) (int, bool) {
	for u := 0; u < limit; u++ {
		if !s.rb.Contains(uint32(u)) {
			return u, true
		}
	}
	return -1, false
}
