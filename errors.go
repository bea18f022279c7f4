package multimethods

import (
	"errors"
	"reflect"
	"strings"

	"github.com/reusee/e5"
)

var ErrClassRedefinition = errors.New("class redefinition")

var ErrSingleRootViolation = errors.New("hierarchy must have a single root")

var ErrClassNotFound = errors.New("class not found")

var ErrNotInitialized = errors.New("not initialized")

var ErrBadArgument = errors.New("bad argument")

var ErrBadDefinition = errors.New("bad definition")

// ErrUndefined is reported when no specialization applies to the arguments of a call.
var ErrUndefined = errors.New("multi-method call is undefined for these arguments")

// ErrAmbiguous is reported when several applicable specializations are mutually incomparable.
var ErrAmbiguous = errors.New("multi-method call is ambiguous for these arguments")

// CallError is raised by the sentinel bodies installed in dispatch tables.
type CallError struct {
	Method string
	Types  []reflect.Type
	Err    error
}

var _ error = new(CallError)

func (c *CallError) Error() string {
	buf := new(strings.Builder)
	buf.WriteString(c.Err.Error())
	buf.WriteString(": ")
	buf.WriteString(c.Method)
	buf.WriteString("(")
	for i, t := range c.Types {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(typeName(t))
	}
	buf.WriteString(")")
	return buf.String()
}

func (c *CallError) Unwrap() error {
	return c.Err
}

func throwClassNotFound(t reflect.Type) {
	_ = throw(we.With(
		e5.Info("class %v is not registered", t),
	)(
		ErrClassNotFound,
	))
}

func throwNotInitialized(format string, args ...any) {
	_ = throw(we.With(
		e5.Info(format, args...),
		e5.Info("call Initialize after registering classes and specializations"),
	)(
		ErrNotInitialized,
	))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}
