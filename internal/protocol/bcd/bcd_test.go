package bcd

import "testing"

func TestDecode(t *testing.T) {
	cases := []struct {
		in   byte
		want uint
	}{
		{0x00, 0},
		{0x09, 9},
		{0x10, 10},
		{0x42, 42},
		{0x59, 59},
		{0x99, 99},
	}
	for _, c := range cases {
		if got := Decode(c.in); got != c.want {
			t.Errorf("Decode(0x%02x) = %d, want %d", c.in, got, c.want)
		}
	}
}

// Invariant 6: Decode(x) == (x>>4)*10 + (x&0x0F) for all x whose
// nibbles are both <= 9.
func TestDecodeInvariant(t *testing.T) {
	for hi := byte(0); hi <= 9; hi++ {
		for lo := byte(0); lo <= 9; lo++ {
			b := hi<<4 | lo
			want := uint(hi)*10 + uint(lo)
			if got := Decode(b); got != want {
				t.Errorf("Decode(0x%02x) = %d, want %d", b, got, want)
			}
		}
	}
}
