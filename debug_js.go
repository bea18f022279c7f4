//go:build js

package multimethods

import (
	"fmt"
	"syscall/js"
)

var console = js.Global().Get("console")

func debugLog(format string, args ...any) {
	console.Call("log", "multimethods: "+fmt.Sprintf(format, args...))
}
