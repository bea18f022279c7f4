package multimethods

import (
	"iter"
)

// AllClasses iterates registered classes in registration order.
func (r *Registry) AllClasses() iter.Seq[*Class] {
	return func(yield func(*Class) bool) {
		for _, c := range r.classes {
			if c == nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// AllFunctions iterates declared functions in declaration order.
func (r *Registry) AllFunctions() iter.Seq[*Function] {
	return func(yield func(*Function) bool) {
		for _, f := range r.functions {
			if f == nil {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}
