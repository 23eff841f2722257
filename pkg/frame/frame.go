// Package frame implements the frame layer (spec §4.3): finding, validating,
// and stripping frames from the input byte stream, and building outgoing
// frames with length, sequence, CRC, and sync byte. It owns the
// sequence-number state machine and ACK/NAK generation.
//
// Grounded on protocol/transport.go's Transport, generalized in two ways the
// spec requires and the teacher does not: TryReadFrame processes at most one
// frame per call (the teacher's Receive loops over every frame found in one
// call), and NEED_SYNC/NEED_VALID are tracked as two distinct latches (the
// teacher collapses them into a single isSynchronized bool).
package frame

import "github.com/klipper-proto/gopperd/pkg/transport"

const (
	syncByte    = 0x7E
	destTag     = 0x10
	seqMask     = 0x0F
	minFrameLen = 5
	maxFrameLen = 64
)

// Frame is a received command payload, a view into the transport's input
// buffer that stays valid only until Consume is called. Per the spec's
// zero-copy contract, handlers that need to retain bytes from it must copy
// them before the dispatcher consumes the frame.
type Frame struct {
	Payload []byte
	rawLen  int
}

// Framer holds the process-wide frame-layer state: the expected/next
// sequence byte and the NEED_SYNC/NEED_VALID latches. One instance per
// device process, held as a field rather than a package global so tests can
// run independent instances concurrently.
type Framer struct {
	nextSeq   byte
	needSync  bool
	needValid bool
	log       func(string)
}

// New creates a Framer in the initial synchronized state (sequence 0x10,
// no latches set).
func New(logger func(string)) *Framer {
	if logger == nil {
		logger = func(string) {}
	}
	return &Framer{nextSeq: destTag, log: logger}
}

// NextSequence returns the current expected/outgoing sequence byte, mostly
// useful for tests asserting on invariant 4 and 5 of spec §8.
func (f *Framer) NextSequence() byte { return f.nextSeq }

// Reset returns the frame layer to its initial synchronized state. Used
// after a "reset" command has been processed, so a reconnecting host starts
// a fresh sequence-number handshake rather than inheriting stale state.
func (f *Framer) Reset() {
	f.nextSeq = destTag
	f.needSync = false
	f.needValid = false
}

func indexOfSync(buf []byte) int {
	for i, b := range buf {
		if b == syncByte {
			return i
		}
	}
	return -1
}
