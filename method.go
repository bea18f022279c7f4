package multimethods

import (
	"reflect"
	"runtime"

	"github.com/reusee/e5"
	"github.com/reusee/pr2"
)

// Param describes one parameter of a method signature: dispatched on a class, or passed through.
type Param struct {
	class reflect.Type
}

// Virtual declares a parameter dispatched on instances of class t.
func Virtual(t reflect.Type) Param {
	return Param{
		class: t,
	}
}

// VirtualOf declares a parameter dispatched on instances of class T.
func VirtualOf[T any]() Param {
	return Virtual(reflect.TypeFor[T]())
}

// Passthrough declares a parameter that takes no part in dispatch.
var Passthrough = Param{}

func (p Param) IsVirtual() bool {
	return p.class != nil
}

// Method is a typed multi-method. F is the function type shared by every specialization.
type Method[F any] struct {
	function *Function
	fnType   reflect.Type
	params   []Param
	// virtuals holds the positions of virtual parameters in F.
	virtuals []int
}

// NewMethod declares a multi-method of type F; params describes each parameter of F.
func NewMethod[F any](r *Registry, name string, params ...Param) *Method[F] {
	fnType := reflect.TypeFor[F]()
	if fnType.Kind() != reflect.Func || fnType.IsVariadic() {
		_ = throw(we.With(
			e5.Info("%v is not a non-variadic function type", fnType),
		)(
			ErrBadArgument,
		))
	}
	if len(params) != fnType.NumIn() {
		_ = throw(we.With(
			e5.Info("%v has %d parameters, got %d descriptors", fnType, fnType.NumIn(), len(params)),
		)(
			ErrBadArgument,
		))
	}

	m := &Method[F]{
		fnType: fnType,
		params: params,
	}
	var classes []reflect.Type
	for i, param := range params {
		if param.IsVirtual() {
			m.virtuals = append(m.virtuals, i)
			classes = append(classes, param.class)
		}
	}
	m.function = r.DeclareFunction(name, classes...)
	m.function.SetSentinelFuncs(
		m.sentinel(ErrUndefined),
		m.sentinel(ErrAmbiguous),
	)
	return m
}

// sentinel returns a body of type F that raises a *CallError wrapping err.
func (m *Method[F]) sentinel(err error) F {
	name := m.function.name
	return reflect.MakeFunc(m.fnType, func(args []reflect.Value) []reflect.Value {
		types := make([]reflect.Type, 0, len(m.virtuals))
		for _, pos := range m.virtuals {
			types = append(types, dynamicType(args[pos]))
		}
		_ = throw(we.With(
			e5.Info("no unique specialization of %s", name),
		)(
			&CallError{
				Method: name,
				Types:  types,
				Err:    err,
			},
		))
		return nil
	}).Interface().(F)
}

func dynamicType(v reflect.Value) reflect.Type {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Type()
	}
	return v.Type()
}

func (m *Method[F]) Function() *Function {
	return m.function
}

func (m *Method[F]) Params() []Param {
	return m.params
}

// Add defines fn for instances of types, one type per virtual parameter.
func (m *Method[F]) Add(fn F, types ...reflect.Type) *Specialization {
	return m.function.AddSpecialization(fn, types...)
}

// Define defines the body returned by build for instances of types.
// next points to the next most specific body; it is rewritten by Initialize
// and must only be read when the body runs.
func (m *Method[F]) Define(types []reflect.Type, build func(next *F) F) *Specialization {
	next := new(F)
	*next = m.function.undefined.fn.(F)
	spec := m.function.AddSpecialization(build(next), types...)
	spec.onNext = func(s *Specialization) {
		*next = s.fn.(F)
	}
	return spec
}

// Select returns the body of the most specific specialization for the virtual arguments.
// When there is none, or it is ambiguous, the returned body panics with a *CallError.
func (m *Method[F]) Select(virtuals ...any) F {
	return m.function.Dispatch(virtuals...).fn.(F)
}

const reflectValuesPoolMaxLen = 64

var reflectValuesPool = pr2.NewPool(
	uint32(runtime.NumCPU()),
	func(_ pr2.PoolPutFunc) []reflect.Value {
		return make([]reflect.Value, reflectValuesPoolMaxLen)
	},
)

// Call dispatches on the virtual positions of args and calls the selected body with args.
func (m *Method[F]) Call(args ...any) (res CallResult) {
	numIn := m.fnType.NumIn()
	if len(args) != numIn {
		_ = throw(we.With(
			e5.Info("%v takes %d arguments, got %d", m.function, numIn, len(args)),
		)(
			ErrBadArgument,
		))
	}

	virtuals := make([]any, len(m.virtuals))
	for i, pos := range m.virtuals {
		virtuals[i] = args[pos]
	}
	spec := m.function.Dispatch(virtuals...)

	var in []reflect.Value
	if numIn <= reflectValuesPoolMaxLen {
		var put func() bool
		in, put = reflectValuesPool.Get()
		defer put()
	} else {
		in = make([]reflect.Value, numIn)
	}
	for i, arg := range args {
		if arg == nil {
			in[i] = reflect.Zero(m.fnType.In(i))
		} else {
			in[i] = reflect.ValueOf(arg)
		}
	}

	res.Specialization = spec
	res.Values = reflect.ValueOf(spec.fn).Call(in[:numIn])
	return
}
