package multimethods

import (
	"iter"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Bits is a fixed length bit vector.
// Used for class reachability masks, slot occupancy and applicable specialization sets.
type Bits struct {
	set *bitset.BitSet
}

func NewBits(n int) Bits {
	return Bits{
		set: bitset.New(uint(n)),
	}
}

func (b Bits) Len() int {
	if b.set == nil {
		return 0
	}
	return int(b.set.Len())
}

func (b Bits) Test(i int) bool {
	if b.set == nil || i < 0 {
		return false
	}
	return b.set.Test(uint(i))
}

// Set sets bit i, growing the vector if needed.
func (b *Bits) Set(i int) {
	if b.set == nil {
		b.set = bitset.New(uint(i + 1))
	}
	b.set.Set(uint(i))
}

func (b Bits) And(o Bits) Bits {
	if b.set == nil || o.set == nil {
		return NewBits(max(b.Len(), o.Len()))
	}
	return Bits{set: b.set.Intersection(o.set)}
}

func (b Bits) Or(o Bits) Bits {
	ret := b.Clone()
	ret.InPlaceOr(o)
	return ret
}

func (b *Bits) InPlaceOr(o Bits) {
	if o.set == nil {
		return
	}
	if b.set == nil {
		b.set = o.set.Clone()
		return
	}
	b.set.InPlaceUnion(o.set)
}

// Not flips every bit within the vector length.
func (b Bits) Not() Bits {
	if b.set == nil {
		return NewBits(0)
	}
	return Bits{set: b.set.Complement()}
}

func (b Bits) None() bool {
	return b.set == nil || b.set.None()
}

// Disjoint reports whether no bit is set in both vectors.
func (b Bits) Disjoint(o Bits) bool {
	if b.set == nil || o.set == nil {
		return true
	}
	return b.set.IntersectionCardinality(o.set) == 0
}

func (b Bits) Count() int {
	if b.set == nil {
		return 0
	}
	return int(b.set.Count())
}

func (b Bits) Equal(o Bits) bool {
	return b.Compare(o) == 0 && b.Len() == o.Len()
}

// Compare orders vectors lexicographically, bit 0 first, a cleared bit sorting before a set one.
func (b Bits) Compare(o Bits) int {
	switch {
	case b.set == nil && o.set == nil:
		return 0
	case b.set == nil:
		if o.set.None() {
			return 0
		}
		return -1
	case o.set == nil:
		if b.set.None() {
			return 0
		}
		return 1
	}
	i, ok := b.set.SymmetricDifference(o.set).NextSet(0)
	if !ok {
		return 0
	}
	if b.set.Test(i) {
		return 1
	}
	return -1
}

// Resize returns a copy of length n, truncating or zero-extending.
func (b Bits) Resize(n int) Bits {
	ret := NewBits(n)
	for i := range b.Ones() {
		if i >= n {
			break
		}
		ret.set.Set(uint(i))
	}
	return ret
}

func (b Bits) Clone() Bits {
	if b.set == nil {
		return Bits{}
	}
	return Bits{set: b.set.Clone()}
}

// Ones iterates the indexes of set bits in ascending order.
func (b Bits) Ones() iter.Seq[int] {
	return func(yield func(int) bool) {
		if b.set == nil {
			return
		}
		for i, ok := b.set.NextSet(0); ok; i, ok = b.set.NextSet(i + 1) {
			if !yield(int(i)) {
				return
			}
		}
	}
}

func (b Bits) String() string {
	buf := new(strings.Builder)
	for i := range b.Len() {
		if b.Test(i) {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	}
	return buf.String()
}
