package multimethods

import (
	"cmp"
	"slices"

	"github.com/dolthub/swiss"
)

// hierarchyInitializer indexes the classes connected to a root and assigns dispatch slots.
type hierarchyInitializer struct {
	registry *Registry
	root     *Class
	// nodes lists the classes of the hierarchy, bases before derived classes.
	nodes []*Class
}

func (r *Registry) initializeHierarchy(root *Class) {
	h := &hierarchyInitializer{
		registry: r,
		root:     root,
	}
	h.execute()
}

func (h *hierarchyInitializer) execute() {
	r := h.registry
	if r.tracing() {
		r.tracef("assigning slots for hierarchy rooted in %v", h.root)
	}
	h.collectClasses()
	h.makeMasks()
	h.assignSlots()

	for _, c := range h.nodes {
		if c.isRoot() {
			r.removeClassFromInitialize(c.id)
		}
	}
}

// roots returns the roots of the classes connected to h.root through base or derived links.
func (h *hierarchyInitializer) roots() []*Class {
	seen := swiss.NewMap[ClassID, struct{}](16)
	var roots []*Class
	var walk func(*Class)
	walk = func(c *Class) {
		if seen.Has(c.id) {
			return
		}
		seen.Put(c.id, struct{}{})
		if c.isRoot() {
			roots = append(roots, c)
		}
		for _, base := range c.bases {
			walk(base)
		}
		for _, d := range c.derived {
			walk(d)
		}
	}
	walk(h.root)
	slices.SortFunc(roots, func(a, b *Class) int {
		return cmp.Compare(a.id, b.id)
	})
	return roots
}

func (h *hierarchyInitializer) collectClasses() {
	once := swiss.NewMap[ClassID, struct{}](16)
	var visit func(*Class)
	visit = func(c *Class) {
		if once.Has(c.id) {
			return
		}
		once.Put(c.id, struct{}{})
		for _, base := range c.bases {
			visit(base)
		}
		h.nodes = append(h.nodes, c)
	}
	conforming := swiss.NewMap[ClassID, struct{}](16)
	for _, root := range h.roots() {
		root.forEachConforming(conforming, visit)
	}
}

func (h *hierarchyInitializer) makeMasks() {
	r := h.registry
	r.nextHierarchy++
	hierarchy := r.nextHierarchy
	n := len(h.nodes)

	for i, c := range h.nodes {
		c.index = i
		c.hierarchy = hierarchy
		c.mask = NewBits(n)
		c.mask.Set(i)
	}

	for i := n - 1; i >= 0; i-- {
		c := h.nodes[i]
		for _, d := range c.derived {
			// d.mask has no bit below d.index
			c.mask.InPlaceOr(d.mask)
		}
		if r.tracing() {
			r.tracef("%v = %d %v", c, c.index, c.mask)
		}
	}
}

func (h *hierarchyInitializer) assignSlots() {
	r := h.registry
	var slots []Bits

	for _, c := range h.nodes {
		maxSlots := 0

		for _, param := range c.rootedHere {
			slot := slices.IndexFunc(slots, func(occupied Bits) bool {
				return occupied.Disjoint(c.mask)
			})
			if slot == -1 {
				slots = append(slots, NewBits(len(h.nodes)))
				slot = len(slots) - 1
			}
			slots[slot].InPlaceOr(c.mask)
			maxSlots = max(maxSlots, slot+1)

			if r.tracing() {
				r.tracef("slot %d -> %v (arg %d)", slot, param.function, param.arg)
			}
			param.function.assignSlot(param.arg, slot)
		}

		maxInheritedSlots := 0
		for _, base := range c.bases {
			maxInheritedSlots = max(maxInheritedSlots, len(base.table.Slots))
		}
		if r.tracing() {
			r.tracef("%v: max inherited slots: %d, max direct slots: %d", c, maxInheritedSlots, maxSlots)
		}
		c.table.resize(max(maxInheritedSlots, maxSlots))
	}
}

func (s *SlotTable) resize(n int) {
	if n <= cap(s.Slots) {
		s.Slots = s.Slots[:n]
		return
	}
	slots := make([]int, n)
	copy(slots, s.Slots)
	s.Slots = slots
}
