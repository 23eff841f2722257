// Package codec implements the command codec (spec §4.4): Parse decodes a
// command payload into a typed argument vector against a schema.Parser
// entry, and Encoder builds a response payload from a schema.Encoder entry
// and a typed argument list.
package codec

import (
	"fmt"

	"github.com/klipper-proto/gopperd/pkg/schema"
	"github.com/klipper-proto/gopperd/pkg/shutdown"
	"github.com/klipper-proto/gopperd/pkg/vlq"
)

// ProgmemBytes preserves the source's flash-vs-RAM read abstraction as a
// distinct type from []byte, even though on a Go host/runtime target the
// distinction collapses to an ordinary read — the same abstraction point
// named in the spec's Design Notes, kept so the same codec would serve a
// cross-compiled Harvard-architecture target without change.
type ProgmemBytes []byte

// Outcome reports what Parse did, so the dispatcher knows whether to
// proceed to invoking the handler or stop processing the current frame.
type Outcome int

const (
	// Parsed means args were successfully decoded; dispatch the handler.
	Parsed Outcome = iota
	// Skip means the device is in shutdown and this command is not
	// shutdown-safe; the caller already replied is_shutdown and must not
	// invoke the handler, and must stop processing the rest of the frame.
	Skip
)

// ShutdownAwareReply is invoked by Parse when a command must be skipped
// because the device is shut down, so the caller can send an is_shutdown
// response without pkg/codec needing to know about the frame/transport
// layer itself.
type ShutdownAwareReply func(reason string)

// Parse decodes payload against p's parameter types, returning the decoded
// argument vector and the number of bytes consumed from the front of
// payload — the spec's "returned cursor points immediately after the last
// argument consumed". If the device is in shutdown and p is not flagged
// InShutdown, Parse calls reply (if non-nil) and returns (nil, 0, Skip)
// without consuming payload.
//
// A cursor that runs past the end of payload, or an argument type the
// switch does not recognize, triggers a fatal "Command parser error"
// shutdown per the spec's error table — via pkg/shutdown.Shutdown, which
// panics; pkg/dispatch.Poll is expected to be the sole recoverer.
func Parse(payload []byte, p *schema.Parser, reply ShutdownAwareReply) ([]schema.Arg, int, Outcome) {
	if shutdown.IsShutdown() && p.Flags&schema.FlagInShutdown == 0 {
		if reply != nil {
			reply(shutdown.Reason())
		}
		return nil, 0, Skip
	}

	args := make([]schema.Arg, 0, p.NumArgs())
	cursor := payload
	for _, pt := range p.ParamTypes {
		switch pt {
		case schema.PTUint32, schema.PTInt32, schema.PTUint16, schema.PTInt16, schema.PTByte:
			v, err := vlq.DecodeInt32(&cursor)
			if err != nil {
				shutdown.Shutdown("Command parser error")
			}
			args = append(args, schema.Arg{Int: v})
		case schema.PTBuffer, schema.PTProgmemBuffer:
			if len(cursor) == 0 {
				shutdown.Shutdown("Command parser error")
			}
			n := int(cursor[0])
			cursor = cursor[1:]
			if n > len(cursor) {
				shutdown.Shutdown("Command parser error")
			}
			args = append(args, schema.Arg{Int: int32(n), Bytes: cursor[:n]})
			cursor = cursor[n:]
		default:
			shutdown.Shutdown("Command parser error")
		}
	}
	return args, len(payload) - len(cursor), Parsed
}

// Encoder builds a response payload bounded by an Encoder's declared
// max size. Exceeding MaxSize is a fatal "Message encode error" per the
// spec's error table.
type Encoder struct {
	enc *schema.Encoder
	buf []byte
}

// NewEncoder prepares an Encoder for building one response payload.
func NewEncoder(enc *schema.Encoder) *Encoder {
	return &Encoder{enc: enc, buf: make([]byte, 0, enc.MaxSize)}
}

func (e *Encoder) checkBudget(added int) {
	if len(e.buf)+added > e.enc.MaxSize {
		shutdown.Shutdown("Message encode error")
	}
}

// PutRawByte appends a single unencoded byte — used for the command's
// leading MSG_ID, which the wire format specifies as one raw byte (spec
// §3's "Command: Byte: MSG_ID"), not a VLQ value.
func (e *Encoder) PutRawByte(b byte) {
	e.checkBudget(1)
	e.buf = append(e.buf, b)
}

// PutUint32 encodes a full-width VLQ argument.
func (e *Encoder) PutUint32(v uint32) {
	before := len(e.buf)
	e.buf = vlq.EncodeUint32(e.buf, v)
	e.checkBudget(len(e.buf) - before)
}

// PutInt32 encodes a full-width signed VLQ argument.
func (e *Encoder) PutInt32(v int32) {
	before := len(e.buf)
	e.buf = vlq.EncodeInt32(e.buf, v)
	e.checkBudget(len(e.buf) - before)
}

// PutUint16 VLQ-encodes v masked to 16 bits.
func (e *Encoder) PutUint16(v uint16) {
	before := len(e.buf)
	e.buf = vlq.EncodeUint16(e.buf, v)
	e.checkBudget(len(e.buf) - before)
}

// PutByte VLQ-encodes a single byte-sized argument.
func (e *Encoder) PutByte(v byte) {
	before := len(e.buf)
	e.buf = vlq.EncodeByte(e.buf, v)
	e.checkBudget(len(e.buf) - before)
}

// PutString encodes a length-prefixed string, truncating to the remaining
// declared capacity without writing a NUL terminator — the specified
// truncation behavior.
func (e *Encoder) PutString(s string) {
	e.putLengthPrefixed([]byte(s))
}

// PutBuffer encodes a length-prefixed buffer, clamped to remaining space.
func (e *Encoder) PutBuffer(b []byte) {
	e.putLengthPrefixed(b)
}

// PutProgmemBuffer encodes a length-prefixed read-only-memory buffer,
// wire-identical to PutBuffer.
func (e *Encoder) PutProgmemBuffer(b ProgmemBytes) {
	e.putLengthPrefixed([]byte(b))
}

func (e *Encoder) putLengthPrefixed(data []byte) {
	remaining := e.enc.MaxSize - len(e.buf) - 1 // 1 byte for the length prefix
	if remaining < 0 {
		shutdown.Shutdown("Message encode error")
	}
	if len(data) > remaining {
		data = data[:remaining]
	}
	if len(data) > 0xFF {
		data = data[:0xFF]
	}
	e.buf = append(e.buf, byte(len(data)))
	e.buf = append(e.buf, data...)
}

// Bytes returns the encoded payload built so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// PutByType encodes value according to pt, so an encoder argument list can
// be driven generically from a schema.ParamType slice. An unsupported
// ParamType returns an error rather than silently encoding nothing.
func (e *Encoder) PutByType(pt schema.ParamType, value interface{}) error {
	switch pt {
	case schema.PTUint32:
		e.PutUint32(value.(uint32))
	case schema.PTInt32:
		e.PutInt32(value.(int32))
	case schema.PTUint16:
		e.PutUint16(value.(uint16))
	case schema.PTInt16:
		e.PutUint16(uint16(value.(int16)))
	case schema.PTByte:
		e.PutByte(value.(byte))
	case schema.PTString:
		e.PutString(value.(string))
	case schema.PTBuffer:
		e.PutBuffer(value.([]byte))
	case schema.PTProgmemBuffer:
		e.PutProgmemBuffer(value.(ProgmemBytes))
	default:
		return fmt.Errorf("codec: unsupported param type %v", pt)
	}
	return nil
}
