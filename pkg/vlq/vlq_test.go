package vlq

import "testing"

func TestRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 31, 32, -32, -33, 2047, 2048, 1<<31 - 1, -(1 << 31)}
	for _, v := range values {
		buf := EncodeInt32(nil, v)
		data := append([]byte{}, buf...)
		got, err := DecodeInt32(&data)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
		if len(data) != 0 {
			t.Fatalf("round trip %d: %d trailing bytes", v, len(data))
		}
	}
}

func TestMinimality(t *testing.T) {
	cases := []struct {
		v    uint32
		want int
	}{
		{0x00000000, 1},
		{0x0000001F, 1},
		{0x00000020, 1},
		{0x7FFFFFFF, 5},
		{0x80000000, 5},
		{0xFFFFFFFF, 1},
	}
	for _, c := range cases {
		buf := EncodeUint32(nil, c.v)
		if len(buf) != c.want {
			t.Errorf("encode(%#x): got %d bytes, want %d", c.v, len(buf), c.want)
		}
		data := append([]byte{}, buf...)
		got, err := DecodeUint32(&data)
		if err != nil {
			t.Fatalf("decode(%#x): %v", c.v, err)
		}
		if got != c.v {
			t.Errorf("round trip %#x: got %#x", c.v, got)
		}
	}
}

func TestSignedNegativeOne(t *testing.T) {
	buf := EncodeInt32(nil, -1)
	if len(buf) != 1 || buf[0] != 0x7F {
		t.Fatalf("encode(-1): got %x, want [7f]", buf)
	}
	data := []byte{0x7F}
	got, err := DecodeUint32(&data)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xFFFFFFFF {
		t.Fatalf("decode(7f): got %#x, want 0xFFFFFFFF", got)
	}
}

func TestShortBuffer(t *testing.T) {
	data := []byte{0x80}
	if _, err := DecodeInt32(&data); err != ErrShortBuffer {
		t.Fatalf("got %v, want ErrShortBuffer", err)
	}
	empty := []byte{}
	if _, err := DecodeInt32(&empty); err != ErrShortBuffer {
		t.Fatalf("got %v, want ErrShortBuffer", err)
	}
}

func TestEncodeUint16Masks(t *testing.T) {
	buf := EncodeUint16(nil, 0xFFFF)
	data := append([]byte{}, buf...)
	got, err := DecodeUint32(&data)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xFFFF {
		t.Fatalf("got %#x, want 0xffff", got)
	}
}
