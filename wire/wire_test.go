package wire

import "testing"

func TestUint32RoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	PutUint32(buf, 0xDEADBEEF)
	if got := Uint32(buf); got != 0xDEADBEEF {
		t.Fatalf("Uint32() = %#x, want 0xDEADBEEF", got)
	}
}

func TestUint32AtIsLittleEndian(t *testing.T) {
	buf := make([]byte, 8)
	PutUint32At(buf, 2, 1)
	want := []byte{0, 0, 1, 0, 0, 0, 0, 0}
	for i, b := range want {
		if buf[i] != b {
			t.Fatalf("buf = %v, want %v", buf, want)
		}
	}
	if got := Uint32At(buf, 2); got != 1 {
		t.Fatalf("Uint32At(2) = %d, want 1", got)
	}
}
