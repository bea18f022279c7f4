package multimethods

import (
	"reflect"
)

// classKey strips pointer indirections so that T and *T name the same class.
func classKey(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func (r *Registry) lookup(t reflect.Type) (*Class, bool) {
	id, ok := r.byType.Get(classKey(t))
	if !ok {
		return nil, false
	}
	c := r.classes[id]
	return c, c != nil
}

func (r *Registry) mustLookup(t reflect.Type) *Class {
	c, ok := r.lookup(t)
	if !ok {
		throwClassNotFound(t)
	}
	return c
}

// ClassOf returns the registered class of t. T and *T name the same class.
func (r *Registry) ClassOf(t reflect.Type) (*Class, bool) {
	return r.lookup(t)
}

func (r *Registry) mustLookupAll(ts []reflect.Type) []*Class {
	ret := make([]*Class, 0, len(ts))
	for _, t := range ts {
		ret = append(ret, r.mustLookup(t))
	}
	return ret
}
