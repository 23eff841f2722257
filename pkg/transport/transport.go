// Package transport implements the external byte transport the frame layer
// consumes: a contiguous-view input side (Peek/Pop) and a reserve-then-commit
// output side, plus two concrete implementations — an in-memory FIFO for
// tests and a serial-port-backed transport for runtime use.
package transport

// Transport is the narrow interface the frame layer (pkg/frame) uses to move
// bytes to and from the outside world. It deliberately does not expose
// anything about the underlying medium.
type Transport interface {
	// Peek returns a contiguous view of the currently available received
	// bytes. The slice is only valid until the next Pop or until more data
	// arrives; callers must not retain it past the current poll.
	Peek() []byte

	// Pop discards n bytes from the front of the received data.
	Pop(n int)

	// Reserve returns a writable slice of at least n bytes for the caller
	// to fill, or ok=false if no such space is currently available. Only
	// one reservation may be outstanding at a time.
	Reserve(n int) (buf []byte, ok bool)

	// Commit publishes the first n bytes of the most recent Reserve'd
	// slice, making them visible to the transport's output side.
	Commit(n int)
}
