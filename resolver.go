package multimethods

import (
	"slices"

	"github.com/dolthub/swiss"
)

// group is a set of classes that have the same applicable specializations in one dimension.
type group struct {
	mask    Bits
	classes []*Class
}

// groupingResolver builds the dispatch table and next links of a function.
type groupingResolver struct {
	function *Function
	dims     int
	// groups holds, per dimension, groups sorted by mask.
	groups [][]group
	table  []*Specialization
	emitAt int
}

func (f *Function) resolve() {
	r := &groupingResolver{
		function: f,
		dims:     len(f.vargs),
	}
	r.resolve()
}

func (g *groupingResolver) resolve() {
	g.makeGroups()
	g.makeTable()
	g.assignNext()
}

func (g *groupingResolver) tracef(format string, args ...any) {
	if reg := g.function.registry; reg.tracing() {
		reg.tracef(format, args...)
	}
}

func (g *groupingResolver) makeGroups() {
	f := g.function
	g.groups = make([][]group, g.dims)
	f.steps = make([]int, g.dims)
	step := 1

	for dim := range g.dims {
		g.tracef("make groups dim = %d", dim)
		f.steps[dim] = step
		dimGroups := g.groups[dim]

		once := swiss.NewMap[ClassID, struct{}](16)
		f.vargs[dim].forEachConforming(once, func(c *Class) {
			mask := g.applicable(dim, c)
			i, found := slices.BinarySearchFunc(dimGroups, mask, func(grp group, mask Bits) int {
				return grp.mask.Compare(mask)
			})
			if found {
				dimGroups[i].classes = append(dimGroups[i].classes, c)
				g.tracef("add %v to existing group %v", c, mask)
			} else {
				dimGroups = slices.Insert(dimGroups, i, group{
					mask:    mask,
					classes: []*Class{c},
				})
				g.tracef("create new group %v for %v", mask, c)
			}
		})
		g.groups[dim] = dimGroups

		step *= len(dimGroups)

		slot := f.slots[dim]
		for offset, group := range dimGroups {
			for _, c := range group.classes {
				c.table.Slots[slot] = offset
			}
		}
	}

	g.table = make([]*Specialization, step)
}

// applicable returns the mask of specializations whose dim-th argument c conforms to.
func (g *groupingResolver) applicable(dim int, c *Class) Bits {
	specs := g.function.specializations
	mask := NewBits(len(specs))
	for _, spec := range specs {
		if c.ConformsTo(spec.args[dim]) {
			mask.Set(spec.index)
		}
	}
	return mask
}

func (g *groupingResolver) makeTable() {
	f := g.function
	g.tracef("creating dispatch table for %v", f)
	g.emitAt = 0
	g.fill(g.dims-1, NewBits(len(f.specializations)).Not())
	f.table = g.table
}

// fill walks the groups from the last dimension down to dimension 0,
// so that dimension 0 varies fastest in the table.
func (g *groupingResolver) fill(dim int, candidates Bits) {
	for _, group := range g.groups[dim] {
		if dim == 0 {
			best := g.findBestMask(candidates.And(group.mask))
			g.tracef("install %v at offset %d", best, g.emitAt)
			g.table[g.emitAt] = best
			g.emitAt++
		} else {
			g.fill(dim-1, candidates.And(group.mask))
		}
	}
}

func (g *groupingResolver) findBestMask(mask Bits) *Specialization {
	var candidates []*Specialization
	for i := range mask.Ones() {
		candidates = append(candidates, g.function.specializations[i])
	}
	return g.function.findBest(candidates)
}

// findBest returns the most specific of candidates, the undefined sentinel if there is none,
// or the ambiguous sentinel if several are incomparable.
func (f *Function) findBest(candidates []*Specialization) *Specialization {
	var best []*Specialization

	for _, candidate := range candidates {
		dominated := false
		for i := 0; i < len(best); {
			if candidate.Specializes(best[i]) {
				best = slices.Delete(best, i, i+1)
			} else if best[i].Specializes(candidate) {
				dominated = true
				break
			} else {
				i++
			}
		}
		if !dominated {
			best = append(best, candidate)
		}
	}

	switch len(best) {
	case 0:
		return f.undefined
	case 1:
		return best[0]
	default:
		return f.ambiguous
	}
}

func (g *groupingResolver) assignNext() {
	f := g.function
	for _, spec := range f.specializations {
		var candidates []*Specialization
		for _, other := range f.specializations {
			if spec != other && spec.Specializes(other) {
				candidates = append(candidates, other)
			}
		}
		next := f.findBest(candidates)
		g.tracef("next of %v is %v", spec, next)
		spec.setNext(next)
	}
}
