package bridge

import (
	"fmt"
	"sync"
)

// Boundary status codes returned by every exported entry point.
const (
	StatusOK     = 0
	StatusFailed = 1
)

// PanicHook receives the message of a panic caught at the boundary.
type PanicHook func(msg string)

var (
	panicHookMu sync.Mutex
	panicHook   PanicHook
)

// SetPanicHook installs the process-wide panic hook. The hook is invoked
// with the panic message whenever a guard catches a fault. Passing nil
// clears the hook. A later call replaces the previous hook; the slot stays
// active until process exit.
func SetPanicHook(hook PanicHook) {
	panicHookMu.Lock()
	panicHook = hook
	panicHookMu.Unlock()
}

func notifyPanic(msg string) {
	panicHookMu.Lock()
	hook := panicHook
	panicHookMu.Unlock()

	if hook != nil {
		hook(msg)
	}
}

// Guard runs fn and converts any panic into StatusFailed. Unwinding through
// a foreign caller is undefined behavior, so every status-returning entry
// point wraps its body in Guard. The panic message is forwarded to the
// registered panic hook.
func Guard(fn func() int) (status int) {
	defer func() {
		if r := recover(); r != nil {
			notifyPanic(panicMessage(r))
			status = StatusFailed
		}
	}()
	return fn()
}

// Protect runs fn and swallows any panic. Used by entry points with no
// return value, such as the destroy operations.
func Protect(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			notifyPanic(panicMessage(r))
		}
	}()
	fn()
}

// panicMessage converts a recovered panic value to a string.
func panicMessage(r interface{}) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}
