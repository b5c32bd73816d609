// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package endian

import "testing"

func TestSwapRoundTrip(t *testing.T) {
	if got := Swap16(Swap16(0x1234)); got != 0x1234 {
		t.Errorf("Swap16(Swap16(x)) = %#x, want 0x1234", got)
	}
	if got := Swap32(Swap32(0x11223344)); got != 0x11223344 {
		t.Errorf("Swap32(Swap32(x)) = %#x, want 0x11223344", got)
	}
	if got := Swap64(Swap64(0x1122334455667788)); got != 0x1122334455667788 {
		t.Errorf("Swap64(Swap64(x)) = %#x, want 0x1122334455667788", got)
	}
	if got := SwapF32(SwapF32(3.25)); got != 3.25 {
		t.Errorf("SwapF32(SwapF32(x)) = %v, want 3.25", got)
	}
	if got := SwapF64(SwapF64(12345.6789)); got != 12345.6789 {
		t.Errorf("SwapF64(SwapF64(x)) = %v, want 12345.6789", got)
	}
}

func TestSwap32Bytes(t *testing.T) {
	// 0x11223344 swapped is 0x44332211.
	if got := Swap32(0x11223344); got != 0x44332211 {
		t.Errorf("Swap32(0x11223344) = %#x, want 0x44332211", got)
	}
}

func TestSwap64Bytes(t *testing.T) {
	if got := Swap64(0x1122334455667788); got != 0x8877665544332211 {
		t.Errorf("Swap64(0x1122334455667788) = %#x, want 0x8877665544332211", got)
	}
}

func TestHostConversionRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0xdeadbeef, 0xffffffff}
	for _, v := range cases {
		if got := HostToBig32(BigToHost32(v)); got != v {
			t.Errorf("HostToBig32(BigToHost32(%#x)) = %#x", v, got)
		}
		if got := HostToLittle32(LittleToHost32(v)); got != v {
			t.Errorf("HostToLittle32(LittleToHost32(%#x)) = %#x", v, got)
		}
	}
}

func TestHostEndianConsistent(t *testing.T) {
	if IsLittleHost() == IsBigHost() {
		t.Errorf("IsLittleHost() and IsBigHost() must disagree")
	}
}
