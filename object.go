package multimethods

import (
	"reflect"

	"github.com/reusee/e5"
)

// Object is embedded in types taking part in dispatch. It holds a pointer to the
// SlotTable of the instance's most derived class, set by Registry.Init.
// Values that do not embed Object are dispatched by looking up their dynamic type.
type Object struct {
	table *SlotTable
}

type slotTabled interface {
	slotTable() *SlotTable
	setSlotTable(*SlotTable)
}

func (o *Object) slotTable() *SlotTable {
	return o.table
}

func (o *Object) setSlotTable(t *SlotTable) {
	o.table = t
}

// Init points the embedded Object of obj at the SlotTable of obj's class.
// obj must be a pointer to a registered, non abstract class embedding Object.
func (r *Registry) Init(obj any) {
	tabled, ok := obj.(slotTabled)
	if !ok {
		_ = throw(we.With(
			e5.Info("%T does not embed a single Object", obj),
		)(
			ErrBadArgument,
		))
	}
	c := r.mustLookup(reflect.TypeOf(obj))
	if c.Abstract {
		_ = throw(we.With(
			e5.Info("%v is abstract", c),
		)(
			ErrBadArgument,
		))
	}
	tabled.setSlotTable(c.table)
}

// New allocates a T and initializes its embedded Object.
func New[T any](r *Registry) *T {
	ptr := new(T)
	r.Init(ptr)
	return ptr
}

func (r *Registry) slotTableOf(obj any) *SlotTable {
	if tabled, ok := obj.(slotTabled); ok {
		if table := tabled.slotTable(); table != nil {
			if table.class == nil {
				_ = throw(we.With(
					e5.Info("%T was initialized with an unregistered class", obj),
				)(
					ErrClassNotFound,
				))
			}
			if table.class.registry == r {
				return table
			}
		}
	}
	// foreign instance
	t := reflect.TypeOf(obj)
	c, ok := r.lookup(t)
	if !ok {
		throwClassNotFound(t)
	}
	return c.table
}
