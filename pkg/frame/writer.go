package frame

import "github.com/klipper-proto/gopperd/pkg/crc16"

// emitAckNak writes an empty-payload frame whose sequence byte carries the
// acknowledgement: the frame layer only ever stamps f.nextSeq, and whether
// that reads as ACK or NAK to the host is determined entirely by whether
// the caller already advanced it (spec §4.3.2's "empty-payload frames").
func (f *Framer) emitAckNak(t transportLike) {
	out, ok := t.Reserve(minFrameLen)
	if !ok {
		f.log("frame: output transport full, dropping ACK/NAK")
		return
	}
	out[0] = minFrameLen
	out[1] = f.nextSeq
	crc := crc16.Checksum(out[:2])
	out[2] = byte(crc >> 8)
	out[3] = byte(crc)
	out[4] = syncByte
	t.Commit(minFrameLen)
}

// Send builds and transmits a frame carrying payload (one or more encoded
// commands), per spec §4.3.2. maxSize bounds the payload length; the total
// reservation is maxSize+5 to hold header and trailer. If the transport
// cannot reserve that much space, the send is silently dropped — the host
// will retransmit on ACK timeout.
func (f *Framer) Send(t transportLike, maxSize int, payload []byte) {
	if len(payload) > maxSize {
		payload = payload[:maxSize]
	}

	total := len(payload) + minFrameLen
	out, ok := t.Reserve(maxSize + minFrameLen)
	if !ok {
		f.log("frame: output transport full, dropping frame")
		return
	}

	out[0] = byte(total)
	out[1] = f.nextSeq
	copy(out[2:2+len(payload)], payload)

	crcEnd := 2 + len(payload)
	crc := crc16.Checksum(out[:crcEnd])
	out[crcEnd] = byte(crc >> 8)
	out[crcEnd+1] = byte(crc)
	out[crcEnd+2] = syncByte

	t.Commit(total)
}
