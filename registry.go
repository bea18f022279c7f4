package multimethods

import (
	"fmt"
	"io"
	"reflect"

	"github.com/dolthub/swiss"
)

// ClassID addresses a Class in its registry's arena.
type ClassID int

// FunctionID addresses a Function in its registry's arena.
type FunctionID int

// Registry holds classes, multi-methods and the pending (re)initialization work.
// Registration is expected to happen from a single goroutine, typically at init time;
// dispatching through an initialized registry is read-only and safe for concurrent use.
type Registry struct {
	// classes is the class arena. Unregistered classes leave a nil tombstone.
	classes []*Class
	// byType maps class keys to arena handles.
	byType *swiss.Map[reflect.Type, ClassID]
	// functions is the function arena. Unregistered functions leave a nil tombstone.
	functions []*Function

	// classesToInitialize holds roots whose hierarchy needs indexes, masks and slots recomputed.
	// Allocated on first use and dropped when drained.
	classesToInitialize *swiss.Map[ClassID, struct{}]
	// functionsToInitialize holds functions whose dispatch table needs rebuilding.
	// Allocated on first use and dropped when drained.
	functionsToInitialize *swiss.Map[FunctionID, struct{}]

	nextHierarchy int

	singleRoot     bool
	autoInitialize bool
	debug          bool
	trace          io.Writer
}

type Option func(*Registry)

// WithSingleRoot rejects classes whose bases belong to different root hierarchies.
func WithSingleRoot() Option {
	return func(r *Registry) {
		r.singleRoot = true
	}
}

// WithAutoInitialize makes dispatch drain pending work instead of failing with ErrNotInitialized.
func WithAutoInitialize() Option {
	return func(r *Registry) {
		r.autoInitialize = true
	}
}

// WithTrace writes initializer and resolver traces to w.
func WithTrace(w io.Writer) Option {
	return func(r *Registry) {
		r.trace = w
	}
}

// WithDebug writes initializer and resolver traces to the debug log.
func WithDebug() Option {
	return func(r *Registry) {
		r.debug = true
	}
}

func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		byType: swiss.NewMap[reflect.Type, ClassID](64),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Default is the process-wide registry used by the package level functions.
var Default = NewRegistry()

// Initialize drains the pending work of the Default registry.
func Initialize() {
	Default.Initialize()
}

func (r *Registry) tracef(format string, args ...any) {
	if r.trace != nil {
		fmt.Fprintf(r.trace, format+"\n", args...)
	} else if r.debug {
		debugLog(format+"\n", args...)
	}
}

func (r *Registry) tracing() bool {
	return r.trace != nil || r.debug
}

func (r *Registry) addClassToInitialize(c *Class) {
	if r.classesToInitialize == nil {
		r.classesToInitialize = swiss.NewMap[ClassID, struct{}](8)
	}
	if r.tracing() {
		r.tracef("add to initialize: %v", c)
	}
	r.classesToInitialize.Put(c.id, struct{}{})
}

func (r *Registry) removeClassFromInitialize(id ClassID) {
	if r.classesToInitialize == nil {
		return
	}
	r.classesToInitialize.Delete(id)
	if r.classesToInitialize.Count() == 0 {
		r.classesToInitialize = nil
	}
}

func (r *Registry) addFunctionToInitialize(f *Function) {
	if r.functionsToInitialize == nil {
		r.functionsToInitialize = swiss.NewMap[FunctionID, struct{}](8)
	}
	r.functionsToInitialize.Put(f.id, struct{}{})
}

func (r *Registry) removeFunctionFromInitialize(id FunctionID) {
	if r.functionsToInitialize == nil {
		return
	}
	r.functionsToInitialize.Delete(id)
	if r.functionsToInitialize.Count() == 0 {
		r.functionsToInitialize = nil
	}
}

// Pending reports whether Initialize has work to do.
func (r *Registry) Pending() bool {
	return r.classesToInitialize != nil || r.functionsToInitialize != nil
}

func firstKey[K comparable](m *swiss.Map[K, struct{}]) (ret K) {
	m.Iter(func(k K, _ struct{}) bool {
		ret = k
		return true
	})
	return
}

// Initialize recomputes the hierarchies and dispatch tables invalidated since the last call.
// It is a no-op when nothing is pending.
func (r *Registry) Initialize() {
	for r.classesToInitialize != nil {
		id := firstKey(r.classesToInitialize)
		c := r.classes[id]
		if c != nil && c.isRoot() {
			r.initializeHierarchy(c)
		}
		// non-roots are handled by their root's pass
		r.removeClassFromInitialize(id)
	}

	for r.functionsToInitialize != nil {
		id := firstKey(r.functionsToInitialize)
		if f := r.functions[id]; f != nil {
			f.resolve()
		}
		r.removeFunctionFromInitialize(id)
	}
}
