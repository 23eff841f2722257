// Package firmware implements the concrete command handler set dispatched
// by ID: the Klipper-style bootstrap commands (identify/dictionary, uptime,
// clock, config lifecycle, debug memory read, emergency stop, reset).
//
// Grounded on core/commands.go's InitCoreCommands and handler bodies,
// generalized off TinyGo-only concerns (raw unsafe.Pointer memory reads,
// hardware shutdown fan-out) since this repo's "device" runs as a portable
// Go process rather than firmware with a flat physical address space — the
// wire contract of every handler is unchanged.
package firmware

import (
	"sync/atomic"
	"time"
)

// DictionaryProvider supplies dictionary chunks to the identify handler.
// pkg/dictionary.Dictionary implements this; kept as a narrow interface so
// pkg/firmware does not need to import pkg/dictionary's JSON-building
// internals.
type DictionaryProvider interface {
	Chunk(offset uint32, count uint8) []byte
}

// State holds the mutable firmware state the bootstrap handlers operate on:
// configuration CRC/lifecycle, start time for uptime, and the pending-reset
// flag consumed by the poll loop after an ACK has gone out.
//
// Grounded on core/commands.go's FirmwareState, trimmed to the fields this
// repo's handler set actually needs (moveCount there is a stepper queue
// depth constant with no analogue here, since stepper handling was dropped
// as out of scope — see DESIGN.md).
type State struct {
	configCRC    uint32 // atomic
	resetPending uint32 // atomic bool
	startTime    time.Time
	dict         DictionaryProvider
	debugMem     *DebugMemory
	onReset      func()
	handlers     *handlerSet
}

// NewState creates firmware state with the clock started at the current
// instant. SetDictionary must be called before the identify handler is
// exercised (pkg/dictionary's Dictionary depends on the schema.Table this
// firmware package itself is registered into, so wiring happens in two
// steps from cmd/gopperd: build schema, build dictionary from it, then
// SetDictionary).
func NewState() *State {
	return &State{startTime: time.Now(), debugMem: NewDebugMemory(256)}
}

// SetDictionary installs the dictionary chunk provider.
func (s *State) SetDictionary(d DictionaryProvider) { s.dict = d }

// SetResetHandler installs the platform-specific reset action invoked once
// a pending reset is confirmed (after the ACK for the reset command has
// already been sent).
func (s *State) SetResetHandler(fn func()) { s.onReset = fn }

// Uptime returns elapsed time since NewState, in the uptime command's
// high/low 32-bit split of a 64-bit tick count.
func (s *State) Uptime() (high, low uint32) {
	ticks := uint64(time.Since(s.startTime).Milliseconds())
	return uint32(ticks >> 32), uint32(ticks)
}

// Clock returns the current clock value (milliseconds since start, wrapped
// to 32 bits — the spec treats clock as an opaque monotonic counter).
func (s *State) Clock() uint32 {
	return uint32(time.Since(s.startTime).Milliseconds())
}

func (s *State) configCRCValue() uint32    { return atomic.LoadUint32(&s.configCRC) }
func (s *State) setConfigCRC(v uint32)     { atomic.StoreUint32(&s.configCRC, v) }
func (s *State) resetConfig()              { atomic.StoreUint32(&s.configCRC, 0) }
func (s *State) markResetPending()         { atomic.StoreUint32(&s.resetPending, 1) }
func (s *State) resetIsPending() bool      { return atomic.LoadUint32(&s.resetPending) != 0 }
func (s *State) clearResetPending()        { atomic.StoreUint32(&s.resetPending, 0) }

// CheckPendingReset runs the installed reset handler if a reset command has
// been processed, and clears the flag. The poll loop (cmd/gopperd) calls
// this after each Poll so the ACK for "reset" has already reached the
// transport before the handler runs — matching core/commands.go's
// handleReset/CheckPendingReset ordering.
func (s *State) CheckPendingReset() {
	if s.resetIsPending() {
		s.clearResetPending()
		if s.onReset != nil {
			s.onReset()
		}
	}
}
