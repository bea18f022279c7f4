package multimethods

import (
	"errors"

	"github.com/reusee/e5"
)

var (
	is    = errors.Is
	as    = errors.As
	we    = e5.Wrap
	throw = e5.Throw
)
