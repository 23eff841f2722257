// Package shutdown implements the process-wide shutdown state the frame
// layer and command codec query and the dispatcher and handlers trigger.
//
// Shutdown() is specified as a call that "does not return" at its call
// site. Go has no non-returning-function annotation that also lets the
// caller's own caller keep running, so this package realizes the contract
// with panic/recover: Shutdown sets the shared state and then panics with a
// typed signal; pkg/dispatch.Poll is the only recoverer, reusing the exact
// panic-recovery idiom the teacher already applies around handler
// invocation in protocol/transport.go's parseFrame.
package shutdown

import "sync/atomic"

// Signal is the panic value Shutdown raises. pkg/dispatch recovers exactly
// this type; any other panic propagates untouched.
type Signal struct {
	Reason string
}

func (s Signal) Error() string { return "shutdown: " + s.Reason }

var (
	active uint32 // atomic bool
	reason atomic.Value
)

// IsShutdown reports whether the device is currently in shutdown state.
func IsShutdown() bool {
	return atomic.LoadUint32(&active) != 0
}

// Reason returns the reason string passed to the most recent Shutdown call,
// or "" if the device has never shut down.
func Reason() string {
	if r, ok := reason.Load().(string); ok {
		return r
	}
	return ""
}

// Shutdown latches the shutdown state with reason and panics with Signal.
// Per the contract, control never returns to Shutdown's caller.
func Shutdown(reason_ string) {
	atomic.StoreUint32(&active, 1)
	reason.Store(reason_)
	panic(Signal{Reason: reason_})
}

// Reset clears shutdown state, for reconnection (mirrors the teacher's
// ResetFirmwareState for the shutdown half of that state).
func Reset() {
	atomic.StoreUint32(&active, 0)
	reason.Store("")
}
