package multimethods

import (
	"reflect"

	"github.com/dolthub/swiss"
	"github.com/reusee/e5"
)

// adjuster converts an instance of a class to its view as one of its direct bases.
type adjuster func(obj any) any

// defaultAdjuster derives the adjustment from class t to its direct base.
// Interface bases need no adjustment; struct bases are reached through the embedded field.
// It returns nil when no static adjustment exists; SetAdjuster supplies one.
func defaultAdjuster(t reflect.Type, base reflect.Type) adjuster {
	if base.Kind() == reflect.Interface {
		return func(obj any) any {
			return obj
		}
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.Anonymous || classKey(field.Type) != base {
			continue
		}
		index := field.Index
		return func(obj any) any {
			v := reflect.ValueOf(obj)
			for v.Kind() == reflect.Pointer {
				v = v.Elem()
			}
			f := v.FieldByIndex(index)
			if f.Kind() != reflect.Pointer && f.CanAddr() {
				f = f.Addr()
			}
			return f.Interface()
		}
	}
	return nil
}

// SetAdjuster sets the conversion from instances of c to instances of its direct base.
func (c *Class) SetAdjuster(base reflect.Type, fn func(obj any) any) *Class {
	b := c.registry.mustLookup(base)
	for i, cb := range c.bases {
		if cb == b {
			c.adjust[i] = fn
			c.adjustPaths = nil
			for _, d := range c.allDerived() {
				d.adjustPaths = nil
			}
			return c
		}
	}
	_ = throw(we.With(
		e5.Info("%v is not a direct base of %v", b, c),
	)(
		ErrBadArgument,
	))
	return c
}

func (c *Class) allDerived() (ret []*Class) {
	visited := swiss.NewMap[ClassID, struct{}](16)
	for _, d := range c.derived {
		d.forEachConforming(visited, func(d *Class) {
			ret = append(ret, d)
		})
	}
	return
}

// adjustPath returns the adjusters leading from c to target, or false if target is
// not a base of c or a step has no adjuster.
func (c *Class) adjustPath(target *Class) ([]adjuster, bool) {
	if c == target {
		return nil, true
	}
	if c.adjustPaths != nil {
		if path, ok := c.adjustPaths.Get(target.id); ok {
			return path, path != nil
		}
	} else {
		c.adjustPaths = swiss.NewMap[ClassID, []adjuster](4)
	}
	var found []adjuster
	for i, base := range c.bases {
		if c.adjust[i] == nil || !base.conformsToSlow(target) {
			continue
		}
		rest, ok := base.adjustPath(target)
		if !ok {
			continue
		}
		found = append([]adjuster{c.adjust[i]}, rest...)
		break
	}
	c.adjustPaths.Put(target.id, found)
	return found, found != nil
}

// Adjust converts obj, an instance of a registered class, to its view as an instance of target.
func (r *Registry) Adjust(obj any, target reflect.Type) (any, error) {
	t := reflect.TypeOf(obj)
	from, ok := r.lookup(t)
	if !ok {
		return nil, we.With(
			e5.Info("class %v is not registered", t),
		)(
			ErrClassNotFound,
		)
	}
	to, ok := r.lookup(target)
	if !ok {
		return nil, we.With(
			e5.Info("class %v is not registered", target),
		)(
			ErrClassNotFound,
		)
	}
	path, ok := from.adjustPath(to)
	if !ok {
		return nil, we.With(
			e5.Info("cannot adjust %v to %v", from, to),
		)(
			ErrBadArgument,
		)
	}
	for _, fn := range path {
		obj = fn(obj)
	}
	return obj, nil
}

// As converts obj to T through the adjustment descriptors of obj's class.
// It panics if obj's class does not derive from T's class.
func As[T any](r *Registry, obj any) T {
	if v, ok := obj.(T); ok {
		return v
	}
	target := reflect.TypeFor[T]()
	ret, err := r.Adjust(obj, target)
	if err != nil {
		_ = throw(err)
	}
	v, ok := ret.(T)
	if !ok {
		_ = throw(we.With(
			e5.Info("%T is not %v", ret, target),
		)(
			ErrBadArgument,
		))
	}
	return v
}
