package frame

import "github.com/klipper-proto/gopperd/pkg/crc16"

// TryReadFrame implements spec §4.3.1. It returns at most one frame per
// call; the caller must invoke Consume(t, frame) once it has finished
// dispatching the frame's commands (the spec's "caller pops msglen after
// processing").
func (f *Framer) TryReadFrame(t transportLike) (Frame, bool) {
	if f.needSync {
		return f.resync(t)
	}

	buf := t.Peek()
	if len(buf) < minFrameLen {
		return Frame{}, false
	}

	msglen := int(buf[0])
	if msglen < minFrameLen || msglen > maxFrameLen {
		return f.enterResync(t)
	}

	seq := buf[1]
	if seq&^byte(seqMask) != destTag {
		return f.enterResync(t)
	}

	if len(buf) < msglen {
		return Frame{}, false
	}

	if buf[msglen-1] != syncByte {
		return f.enterResync(t)
	}

	wantCRC := uint16(buf[msglen-3])<<8 | uint16(buf[msglen-2])
	gotCRC := crc16.Checksum(buf[:msglen-3])
	if wantCRC != gotCRC {
		return f.enterResync(t)
	}

	f.needValid = false

	if seq == f.nextSeq {
		f.nextSeq = destTag | ((seq + 1) & seqMask)
		payload := buf[2 : msglen-3]
		f.emitAckNak(t)
		return Frame{Payload: payload, rawLen: msglen}, true
	}

	// Out-of-order or duplicate: discard the frame now (step 10 pops
	// immediately rather than waiting for Consume, since there is nothing
	// to dispatch).
	t.Pop(msglen)
	f.emitAckNak(t)
	return Frame{}, false
}

// Consume pops the bytes of a frame previously returned by TryReadFrame.
// Must be called exactly once, after the dispatcher has finished reading
// everything it needs from frame.Payload.
func (f *Framer) Consume(t transportLike, fr Frame) {
	if fr.rawLen > 0 {
		t.Pop(fr.rawLen)
	}
}

// enterResync is the fail path's first entry: a lone leading sync byte is
// swallowed quietly (no NAK storm) rather than triggering a full resync.
func (f *Framer) enterResync(t transportLike) (Frame, bool) {
	buf := t.Peek()
	if len(buf) > 0 && buf[0] == syncByte {
		t.Pop(1)
		return Frame{}, false
	}
	f.needSync = true
	return f.resync(t)
}

// resync scans for the next sync byte and consumes through it (or consumes
// everything if none is found yet), then — regardless of whether this call
// found it — emits at most one NAK per contiguous run of invalid bytes via
// the NEED_VALID latch.
func (f *Framer) resync(t transportLike) (Frame, bool) {
	buf := t.Peek()
	if idx := indexOfSync(buf); idx >= 0 {
		t.Pop(idx + 1)
		f.needSync = false
	} else {
		t.Pop(len(buf))
	}

	if !f.needValid {
		f.needValid = true
		f.emitAckNak(t)
	}
	return Frame{}, false
}

// transportLike is the subset of pkg/transport.Transport the frame layer
// needs; declared locally so this package does not force every caller to
// depend on the concrete transport package's other types.
type transportLike interface {
	Peek() []byte
	Pop(n int)
	Reserve(n int) ([]byte, bool)
	Commit(n int)
}
