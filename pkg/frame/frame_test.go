package frame

import (
	"testing"

	"github.com/klipper-proto/gopperd/pkg/crc16"
	"github.com/klipper-proto/gopperd/pkg/transport"
)

func buildFrame(seq byte, payload []byte) []byte {
	total := len(payload) + minFrameLen
	buf := make([]byte, total)
	buf[0] = byte(total)
	buf[1] = seq
	copy(buf[2:2+len(payload)], payload)
	crc := crc16.Checksum(buf[:2+len(payload)])
	buf[2+len(payload)] = byte(crc >> 8)
	buf[3+len(payload)] = byte(crc)
	buf[4+len(payload)] = syncByte
	return buf
}

func TestHappyPathAck(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	tr.Write(buildFrame(0x10, nil))

	fr := New(nil)
	frame, ok := fr.TryReadFrame(tr)
	if !ok {
		t.Fatal("expected a frame")
	}
	fr.Consume(tr, frame)

	if fr.NextSequence() != 0x11 {
		t.Fatalf("next sequence: got %#x, want 0x11", fr.NextSequence())
	}

	out := make([]byte, 16)
	n := tr.Read(out)
	if n != 5 || out[0] != 5 || out[1] != 0x11 || out[4] != syncByte {
		t.Fatalf("unexpected ACK bytes: %x (n=%d)", out[:n], n)
	}
}

func TestBadCRCEmitsOneNak(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	bad := buildFrame(0x10, nil)
	bad[2] ^= 0xFF // flip a CRC byte
	tr.Write(bad)

	fr := New(nil)
	_, ok := fr.TryReadFrame(tr)
	if ok {
		t.Fatal("expected no frame on bad CRC")
	}
	if fr.NextSequence() != 0x10 {
		t.Fatalf("next sequence should be unchanged: got %#x", fr.NextSequence())
	}

	// A second poll must not emit a second NAK (NEED_VALID latch).
	before := tr.OutputLen()
	_, ok = fr.TryReadFrame(tr)
	if ok {
		t.Fatal("expected no frame on second poll of exhausted stream")
	}
	after := tr.OutputLen()
	if after != before {
		t.Fatalf("second poll emitted additional output: before=%d after=%d", before, after)
	}
}

func TestOutOfSequenceNaks(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	tr.Write(buildFrame(0x10, nil))

	fr := New(nil)
	fr.nextSeq = 0x11 // pretend we already advanced past this frame

	_, ok := fr.TryReadFrame(tr)
	if ok {
		t.Fatal("expected out-of-sequence frame not to be returned")
	}
	if fr.NextSequence() != 0x11 {
		t.Fatalf("next sequence should be unchanged: got %#x", fr.NextSequence())
	}

	out := make([]byte, 16)
	n := tr.Read(out)
	if n != 5 || out[1] != 0x11 {
		t.Fatalf("unexpected NAK bytes: %x", out[:n])
	}
}

func TestStreamWithCommand(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	tr.Write(buildFrame(0x10, []byte{0x07, 0x2A}))

	fr := New(nil)
	frame, ok := fr.TryReadFrame(tr)
	if !ok {
		t.Fatal("expected a frame")
	}
	if len(frame.Payload) != 2 || frame.Payload[0] != 0x07 || frame.Payload[1] != 0x2A {
		t.Fatalf("unexpected payload: %x", frame.Payload)
	}
	fr.Consume(tr, frame)
	if fr.NextSequence() != 0x11 {
		t.Fatalf("next sequence: got %#x", fr.NextSequence())
	}
}

func TestResync(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	good := buildFrame(0x10, nil)
	garbage := append([]byte{0xFF, 0xFF}, good...)
	tr.Write(garbage)

	fr := New(nil)
	_, ok := fr.TryReadFrame(tr)
	if ok {
		t.Fatal("expected no frame on first poll (resync)")
	}

	// Exactly one NAK should have been emitted for the garbage run.
	if n := tr.OutputLen(); n != 5 {
		t.Fatalf("expected exactly one NAK (5 bytes), got %d bytes", n)
	}
}

func TestExactBoundaryLengths(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	tr.Write(buildFrame(0x10, nil)) // exactly 5 bytes, empty payload

	fr := New(nil)
	frame, ok := fr.TryReadFrame(tr)
	if !ok {
		t.Fatal("5-byte frame should be accepted")
	}
	if len(frame.Payload) != 0 {
		t.Fatalf("expected empty payload, got %d bytes", len(frame.Payload))
	}
}

func TestOversizeFrameRejected(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	// A LEN byte of 65 (just over the 64-byte ceiling) must be rejected.
	tr.Write([]byte{65, 0x10, 0, 0, 0})

	fr := New(nil)
	_, ok := fr.TryReadFrame(tr)
	if ok {
		t.Fatal("expected oversize frame to be rejected")
	}
}

func TestLoneSyncByteSwallowedQuietly(t *testing.T) {
	tr := transport.NewFifo(256, 256)
	tr.Write([]byte{syncByte})

	fr := New(nil)
	_, ok := fr.TryReadFrame(tr)
	if ok {
		t.Fatal("lone sync byte should not produce a frame")
	}
	if n := tr.OutputLen(); n != 0 {
		t.Fatalf("lone leading sync byte must not trigger a NAK, got %d output bytes", n)
	}
}
