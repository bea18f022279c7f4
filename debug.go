//go:build !js

package multimethods

import (
	"fmt"
	"os"
)

func debugLog(format string, args ...any) { // NOCOVER
	fmt.Fprintf(os.Stderr, "multimethods: "+format, args...)
}
