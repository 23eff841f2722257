// Package vlq implements the signed variable-length-quantity integer
// encoding used on the wire: 7 bits per byte, continuation bit 0x80 on every
// byte but the last, shortest encoding selected by the encoder.
package vlq

import "errors"

// ErrShortBuffer is returned when a decode runs off the end of its input
// before finding a terminal (high-bit-clear) byte.
var ErrShortBuffer = errors.New("vlq: buffer too short")

// EncodeInt32 appends the VLQ encoding of v to buf and returns the result.
//
// Range selection mirrors the wire format: values are emitted most
// significant byte first, one extra leading byte for every additional 7 bits
// of signed magnitude the value needs. The thresholds below are in units of
// signed magnitude and overlap deliberately — a positive value up to 3·2^k
// still fits a (k+1)-bit field once VLQ's implicit sign extension is undone
// on decode.
func EncodeInt32(buf []byte, v int32) []byte {
	if !(-(1 << 26) <= v && v < (3 << 26)) {
		buf = append(buf, byte((v>>28)&0x7F)|0x80)
	}
	if !(-(1 << 19) <= v && v < (3 << 19)) {
		buf = append(buf, byte((v>>21)&0x7F)|0x80)
	}
	if !(-(1 << 12) <= v && v < (3 << 12)) {
		buf = append(buf, byte((v>>14)&0x7F)|0x80)
	}
	if !(-(1 << 5) <= v && v < (3 << 5)) {
		buf = append(buf, byte((v>>7)&0x7F)|0x80)
	}
	buf = append(buf, byte(v&0x7F))
	return buf
}

// EncodeUint32 encodes v by reinterpreting it as a signed 32-bit value —
// the wire format never distinguishes signedness, only bit pattern.
func EncodeUint32(buf []byte, v uint32) []byte {
	return EncodeInt32(buf, int32(v))
}

// DecodeInt32 consumes a VLQ value from the front of *data, advancing *data
// past the bytes consumed. It does not bound the number of continuation
// bytes read beyond what *data itself provides; callers are expected to
// bound *data to the current frame before calling, per the wire format's own
// "caller bounds reads with maxend" convention.
func DecodeInt32(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrShortBuffer
	}
	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if len(*data) == 0 {
			return 0, ErrShortBuffer
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = (v << 7) | (c & 0x7F)
	}
	return int32(v), nil
}

// DecodeUint32 decodes a VLQ value and reinterprets its bit pattern as
// unsigned.
func DecodeUint32(data *[]byte) (uint32, error) {
	v, err := DecodeInt32(data)
	return uint32(v), err
}

// EncodeUint16 VLQ-encodes v masked to 16 bits, per the wire format's
// treatment of uint16/int16/byte parameters.
func EncodeUint16(buf []byte, v uint16) []byte {
	return EncodeInt32(buf, int32(v)&0xFFFF)
}

// EncodeByte VLQ-encodes a single byte-sized parameter.
func EncodeByte(buf []byte, v byte) []byte {
	return EncodeInt32(buf, int32(v))
}
