package multimethods

import (
	"reflect"

	"github.com/reusee/e5"
)

// CallResult holds the outcome of Method.Call.
type CallResult struct {
	// Specialization is the table entry that was called, possibly a sentinel.
	Specialization *Specialization
	Values         []reflect.Value
}

// Extract assigns return values to targets by position. nil targets are skipped.
func (c CallResult) Extract(targets ...any) {
	for i, target := range targets {
		if target == nil {
			continue
		}
		if i >= len(c.Values) {
			_ = throw(we.With(
				e5.Info("%v returns %d values, target %d requested", c.Specialization, len(c.Values), i),
			)(
				ErrBadArgument,
			))
		}
		targetValue := reflect.ValueOf(target)
		if targetValue.Kind() != reflect.Pointer {
			_ = throw(we.With(
				e5.Info("%T is not a pointer", target),
			)(
				ErrBadArgument,
			))
		}
		if !c.Values[i].Type().AssignableTo(targetValue.Type().Elem()) {
			_ = throw(we.With(
				e5.Info("cannot assign %v to %v", c.Values[i].Type(), targetValue.Type().Elem()),
			)(
				ErrBadArgument,
			))
		}
		targetValue.Elem().Set(c.Values[i])
	}
}

// Value returns the i-th return value as an interface.
func (c CallResult) Value(i int) any {
	return c.Values[i].Interface()
}
