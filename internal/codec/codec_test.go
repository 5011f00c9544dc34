package codec

import "testing"

func TestRoundTrip(t *testing.T) {
	buf := make([]byte, 8)

	PutUint16(buf, 0xBEEF)
	if got := Uint16(buf); got != 0xBEEF {
		t.Fatalf("Uint16 round trip: got %x", got)
	}

	PutInt32(buf, 0x4B4C4F47)
	if got := Int32(buf); got != 0x4B4C4F47 {
		t.Fatalf("Int32 round trip: got %x", got)
	}

	PutInt64(buf, -1)
	if got := Int64(buf); got != -1 {
		t.Fatalf("Int64 round trip of -1: got %d", got)
	}

	PutInt64(buf, 1700000000123)
	if got := Int64(buf); got != 1700000000123 {
		t.Fatalf("Int64 round trip: got %d", got)
	}
}

func TestBigEndianByteOrder(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32(buf, 0x01020304)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, buf[i], want[i])
		}
	}
}
