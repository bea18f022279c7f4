package multimethods

import (
	"reflect"
	"slices"
	"strings"

	"github.com/reusee/e5"
)

// Function is a multi-method dispatch point: one dimension per virtual parameter.
type Function struct {
	registry *Registry
	id       FunctionID
	name     string

	// vargs holds the declared class of each virtual parameter.
	vargs []*Class
	// slots holds, per dimension, the slot in the classes' SlotTable.
	slots []int
	// steps holds, per dimension, the stride of the dimension in table.
	steps []int

	specializations []*Specialization
	table           []*Specialization

	undefined *Specialization
	ambiguous *Specialization
}

type specializationKind uint8

const (
	kindSpecialization specializationKind = iota
	kindUndefined
	kindAmbiguous
)

// Specialization is one definition of a Function for a tuple of classes.
type Specialization struct {
	function *Function
	args     []*Class
	fn       any
	next     *Specialization
	index    int
	kind     specializationKind
	removed  bool
	// onNext is called whenever next is reassigned.
	onNext func(*Specialization)
}

// DeclareFunction declares a function dispatching on instances of the given classes.
func (r *Registry) DeclareFunction(name string, params ...reflect.Type) *Function {
	if len(params) == 0 {
		_ = throw(we.With(
			e5.Info("function %s has no virtual parameter", name),
		)(
			ErrBadArgument,
		))
	}
	vargs := r.mustLookupAll(params)

	f := &Function{
		registry: r,
		id:       FunctionID(len(r.functions)),
		name:     name,
		vargs:    vargs,
		slots:    make([]int, len(vargs)),
	}
	f.undefined = &Specialization{
		function: f,
		kind:     kindUndefined,
		index:    -1,
	}
	f.ambiguous = &Specialization{
		function: f,
		kind:     kindAmbiguous,
		index:    -1,
	}
	r.functions = append(r.functions, f)

	for i, c := range vargs {
		if r.tracing() {
			r.tracef("add %s rooted in %v argument %d", name, c, i)
		}
		c.rootedHere = append(c.rootedHere, functionParam{
			function: f,
			arg:      i,
		})
		r.addClassToInitialize(c.root)
	}
	f.invalidate()

	return f
}

func (f *Function) String() string {
	buf := new(strings.Builder)
	buf.WriteString(f.name)
	writeClasses(buf, f.vargs)
	return buf.String()
}

func writeClasses(buf *strings.Builder, classes []*Class) {
	buf.WriteString("(")
	for i, c := range classes {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(c.String())
	}
	buf.WriteString(")")
}

func (f *Function) Name() string {
	return f.name
}

func (f *Function) ID() FunctionID {
	return f.id
}

// Params returns the declared class of each dimension.
func (f *Function) Params() []*Class {
	return slices.Clone(f.vargs)
}

func (f *Function) Specializations() []*Specialization {
	return slices.Clone(f.specializations)
}

// Slots returns, per dimension, the slot used in SlotTable.Slots.
func (f *Function) Slots() []int {
	return slices.Clone(f.slots)
}

// Steps returns, per dimension, the stride in the dispatch table.
func (f *Function) Steps() []int {
	return slices.Clone(f.steps)
}

// Table returns a copy of the dispatch table, dimension 0 varying fastest.
func (f *Function) Table() []*Specialization {
	return slices.Clone(f.table)
}

// Undefined returns the sentinel installed where no specialization applies.
func (f *Function) Undefined() *Specialization {
	return f.undefined
}

// Ambiguous returns the sentinel installed where several specializations are incomparable.
func (f *Function) Ambiguous() *Specialization {
	return f.ambiguous
}

// SetSentinelFuncs sets the bodies of the undefined and ambiguous sentinels.
func (f *Function) SetSentinelFuncs(undefined, ambiguous any) {
	f.undefined.fn = undefined
	f.ambiguous.fn = ambiguous
}

func (f *Function) assignSlot(arg int, slot int) {
	f.slots[arg] = slot
	f.invalidate()
}

func (f *Function) invalidate() {
	f.registry.addFunctionToInitialize(f)
}

// AddSpecialization defines fn for instances of types, one per dimension.
func (f *Function) AddSpecialization(fn any, types ...reflect.Type) *Specialization {
	f.checkLive()
	if len(types) != len(f.vargs) {
		_ = throw(we.With(
			e5.Info("%v takes %d virtual arguments, got %d", f, len(f.vargs), len(types)),
		)(
			ErrBadArgument,
		))
	}
	args := f.registry.mustLookupAll(types)
	for i, arg := range args {
		if !arg.ConformsTo(f.vargs[i]) {
			_ = throw(we.With(
				e5.Info("argument %d of %v: %v is not a subclass of %v", i, f, arg, f.vargs[i]),
			)(
				ErrBadDefinition,
			))
		}
	}
	for _, spec := range f.specializations {
		if slices.Equal(spec.args, args) {
			_ = throw(we.With(
				e5.Info("%v is already specialized for %v", f, spec),
			)(
				ErrBadDefinition,
			))
		}
	}

	spec := &Specialization{
		function: f,
		args:     args,
		fn:       fn,
		index:    len(f.specializations),
		next:     f.undefined,
	}
	f.specializations = append(f.specializations, spec)
	f.invalidate()
	return spec
}

func (f *Function) checkLive() {
	if f.registry.functions[f.id] != f {
		_ = throw(we.With(
			e5.Info("%v is unregistered", f),
		)(
			ErrBadArgument,
		))
	}
}

// Unregister removes the function, its specializations and its table.
func (f *Function) Unregister() {
	f.checkLive()
	r := f.registry
	for i := len(f.specializations) - 1; i >= 0; i-- {
		f.specializations[i].removed = true
	}
	f.specializations = nil
	for _, c := range f.vargs {
		c.rootedHere = slices.DeleteFunc(c.rootedHere, func(p functionParam) bool {
			return p.function == f
		})
		r.addClassToInitialize(c.root)
	}
	f.table = nil
	r.functions[f.id] = nil
	r.removeFunctionFromInitialize(f.id)
}

// Remove removes the specialization from its function.
// Next links and table cells that pointed to it fall back to the undefined sentinel
// until the next Initialize.
func (s *Specialization) Remove() {
	if s.kind != kindSpecialization || s.removed {
		_ = throw(we.With(
			e5.Info("%v is not a live specialization", s),
		)(
			ErrBadArgument,
		))
	}
	f := s.function
	s.removed = true
	f.specializations = slices.Delete(f.specializations, s.index, s.index+1)
	for i, spec := range f.specializations {
		spec.index = i
		if spec.next == s {
			spec.setNext(f.undefined)
		}
	}
	for i, cell := range f.table {
		if cell == s {
			f.table[i] = f.undefined
		}
	}
	f.invalidate()
}

func (s *Specialization) setNext(next *Specialization) {
	s.next = next
	if s.onNext != nil {
		s.onNext(next)
	}
}

func (s *Specialization) Function() *Function {
	return s.function
}

// Func returns the body registered for the specialization.
func (s *Specialization) Func() any {
	return s.fn
}

// Next returns the next most specific specialization, or a sentinel.
func (s *Specialization) Next() *Specialization {
	return s.next
}

func (s *Specialization) Args() []*Class {
	return slices.Clone(s.args)
}

func (s *Specialization) Index() int {
	return s.index
}

func (s *Specialization) IsUndefined() bool {
	return s.kind == kindUndefined
}

func (s *Specialization) IsAmbiguous() bool {
	return s.kind == kindAmbiguous
}

func (s *Specialization) String() string {
	switch s.kind {
	case kindUndefined:
		return "undefined"
	case kindAmbiguous:
		return "ambiguous"
	}
	buf := new(strings.Builder)
	buf.WriteString(s.function.name)
	writeClasses(buf, s.args)
	return buf.String()
}

// Specializes reports whether s is at least as specific as other in every dimension
// and more specific in one.
func (s *Specialization) Specializes(other *Specialization) bool {
	if s == other {
		return false
	}
	result := false
	for dim, arg := range s.args {
		if arg != other.args[dim] {
			if arg.Specializes(other.args[dim]) {
				result = true
			} else {
				return false
			}
		}
	}
	return result
}

// Dispatch returns the specialization selected for instances args, one per dimension.
func (f *Function) Dispatch(args ...any) *Specialization {
	if len(args) != len(f.vargs) {
		_ = throw(we.With(
			e5.Info("%v takes %d virtual arguments, got %d", f, len(f.vargs), len(args)),
		)(
			ErrBadArgument,
		))
	}
	f.checkLive()
	r := f.registry
	if r.autoInitialize && r.Pending() {
		r.Initialize()
	}
	if f.table == nil {
		throwNotInitialized("%v has no dispatch table", f)
	}

	offset := 0
	for dim, arg := range args {
		table := r.slotTableOf(arg)
		class, param := table.class, f.vargs[dim]
		if !class.indexedWith(param) {
			if class.conformsToSlow(param) {
				throwNotInitialized("class %v", class)
			}
			return f.undefined
		}
		if !class.ConformsTo(param) {
			return f.undefined
		}
		offset += table.Slots[f.slots[dim]] * f.steps[dim]
	}
	return f.table[offset]
}
