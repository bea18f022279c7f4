package multimethods

import (
	"reflect"
	"slices"

	"github.com/dolthub/swiss"
	"github.com/reusee/e5"
)

// Class is a registered type participating in dispatch.
type Class struct {
	registry *Registry
	id       ClassID
	key      reflect.Type

	bases   []*Class
	derived []*Class

	// Abstract classes cannot be instantiated with Registry.Init.
	Abstract bool

	// index is the dense position assigned by the last hierarchy pass, -1 before.
	index int
	// hierarchy identifies the hierarchy pass that assigned index and mask.
	hierarchy int
	// mask has bit i set iff the class at index i is this class or one of its subclasses.
	mask Bits
	root *Class

	table *SlotTable

	// rootedHere lists the function parameters declared on this class.
	rootedHere []functionParam

	// adjust holds one adjustment descriptor per base, in base order.
	adjust []adjuster
	// adjustPaths caches composed adjustment paths by target class.
	adjustPaths *swiss.Map[ClassID, []adjuster]
}

type functionParam struct {
	function *Function
	arg      int
}

// SlotTable is the per-class dispatch slot vector.
// Its address is stable for the life of the class; Slots is rewritten by Initialize.
type SlotTable struct {
	class *Class
	// Slots holds, for every function dimension rooted in the class's hierarchy,
	// the class's group ordinal in that dimension.
	Slots []int
}

// RegisterClass registers t with its direct bases. Bases must be registered first.
// Registering the same class again with the same bases returns the existing class.
func (r *Registry) RegisterClass(t reflect.Type, bases ...reflect.Type) *Class {
	if t == nil {
		_ = throw(we.With(
			e5.Info("nil class type"),
		)(
			ErrBadArgument,
		))
	}
	key := classKey(t)

	baseClasses := make([]*Class, 0, len(bases))
	for _, b := range bases {
		base, ok := r.lookup(b)
		if !ok {
			_ = throw(we.With(
				e5.Info("base %v of %v is not registered", b, key),
			)(
				ErrClassNotFound,
			))
		}
		if base.key == key || slices.Contains(baseClasses, base) {
			_ = throw(we.With(
				e5.Info("bad base list for %v", key),
			)(
				ErrBadDefinition,
			))
		}
		baseClasses = append(baseClasses, base)
	}

	if c, ok := r.lookup(key); ok {
		if slices.Equal(c.bases, baseClasses) {
			return c
		}
		_ = throw(we.With(
			e5.Info("%v is already registered with bases %v", key, c.bases),
		)(
			ErrClassRedefinition,
		))
	}

	if r.singleRoot {
		for _, base := range baseClasses[min(1, len(baseClasses)):] {
			if base.root != baseClasses[0].root {
				_ = throw(we.With(
					e5.Info("bases of %v belong to hierarchies %v and %v", key, baseClasses[0].root, base.root),
				)(
					ErrSingleRootViolation,
				))
			}
		}
	}

	c := &Class{
		registry: r,
		id:       ClassID(len(r.classes)),
		key:      key,
		bases:    baseClasses,
		Abstract: key.Kind() == reflect.Interface,
		index:    -1,
	}
	c.table = &SlotTable{
		class: c,
	}
	if len(baseClasses) == 0 {
		c.root = c
	} else {
		c.root = baseClasses[0].root
	}
	for _, base := range baseClasses {
		base.derived = append(base.derived, c)
		c.adjust = append(c.adjust, defaultAdjuster(key, base.key))
	}

	r.classes = append(r.classes, c)
	r.byType.Put(key, c.id)
	r.addClassToInitialize(c.root)

	return c
}

// Register registers T with its direct bases.
func Register[T any](r *Registry, bases ...reflect.Type) *Class {
	return r.RegisterClass(reflect.TypeFor[T](), bases...)
}

// UnregisterClass removes a leaf class. The class must not have derived classes
// and must not be referenced by any function or specialization.
func (r *Registry) UnregisterClass(t reflect.Type) {
	c := r.mustLookup(t)

	if len(c.derived) > 0 {
		_ = throw(we.With(
			e5.Info("%v has derived classes %v", c, c.derived),
		)(
			ErrBadArgument,
		))
	}
	if len(c.rootedHere) > 0 {
		_ = throw(we.With(
			e5.Info("%v is a parameter of %v", c, c.rootedHere[0].function),
		)(
			ErrBadArgument,
		))
	}
	for _, f := range r.functions {
		if f == nil {
			continue
		}
		for _, spec := range f.specializations {
			if slices.Contains(spec.args, c) {
				_ = throw(we.With(
					e5.Info("%v is used by specialization %v", c, spec),
				)(
					ErrBadArgument,
				))
			}
		}
	}

	for _, base := range c.bases {
		base.derived = slices.DeleteFunc(base.derived, func(d *Class) bool {
			return d == c
		})
	}
	r.classes[c.id] = nil
	r.byType.Delete(c.key)
	r.removeClassFromInitialize(c.id)
	for _, base := range c.bases {
		r.addClassToInitialize(base.root)
	}

	c.table.class = nil
	c.table.Slots = nil
	c.index = -1
	c.hierarchy = 0
	c.mask = Bits{}
}

func (c *Class) isRoot() bool {
	return len(c.bases) == 0
}

func (c *Class) ID() ClassID {
	return c.id
}

func (c *Class) Type() reflect.Type {
	return c.key
}

func (c *Class) String() string {
	return c.key.String()
}

func (c *Class) Bases() []*Class {
	return slices.Clone(c.bases)
}

func (c *Class) Derived() []*Class {
	return slices.Clone(c.derived)
}

func (c *Class) Root() *Class {
	return c.root
}

// Index returns the dense index assigned by the last Initialize, or -1.
func (c *Class) Index() int {
	return c.index
}

func (c *Class) Mask() Bits {
	return c.mask.Clone()
}

func (c *Class) SlotTable() *SlotTable {
	return c.table
}

func (c *Class) SetAbstract(abstract bool) *Class {
	c.Abstract = abstract
	return c
}

// forEachConforming visits c and every class reachable through derived links,
// depth first, pre-order, each class once.
func (c *Class) forEachConforming(visited *swiss.Map[ClassID, struct{}], fn func(*Class)) {
	if visited.Has(c.id) {
		return
	}
	visited.Put(c.id, struct{}{})
	fn(c)
	for _, d := range c.derived {
		d.forEachConforming(visited, fn)
	}
}

// ForEachConforming visits c and all its subclasses once.
func (c *Class) ForEachConforming(fn func(*Class)) {
	c.forEachConforming(swiss.NewMap[ClassID, struct{}](16), fn)
}

func (c *Class) indexedWith(other *Class) bool {
	return c.hierarchy != 0 && c.hierarchy == other.hierarchy
}

// ConformsTo reports whether c is other or one of its subclasses.
func (c *Class) ConformsTo(other *Class) bool {
	if c.indexedWith(other) {
		return c.index >= other.index && other.mask.Test(c.index)
	}
	return c.conformsToSlow(other)
}

// Specializes reports whether c is a proper subclass of other.
func (c *Class) Specializes(other *Class) bool {
	if c.indexedWith(other) {
		return c.index > other.index && other.mask.Test(c.index)
	}
	return c != other && c.conformsToSlow(other)
}

func (c *Class) conformsToSlow(other *Class) bool {
	if c == other {
		return true
	}
	for _, base := range c.bases {
		if base.conformsToSlow(other) {
			return true
		}
	}
	return false
}
