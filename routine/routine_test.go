// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package routine

import (
	"testing"

	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

func TestEqualMatchesEncodedValue(t *testing.T) {
	r, ok := Dispatch(scantype.U64, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch(U64, EQUAL) not resolvable")
	}
	uv := scanval.FromU64(0x1122334455667788)
	view := []byte{0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, 0xff, 0xff}
	var flags scantype.WidthFlags
	width := r(view, nil, &uv, &flags)
	if width != 8 {
		t.Errorf("matched width = %d, want 8", width)
	}
	if flags&scantype.B64 == 0 {
		t.Errorf("flags = %v, want B64 set", flags)
	}
}

func TestRangeBoundaryInclusive(t *testing.T) {
	r, ok := Dispatch(scantype.I32, scantype.Range, false)
	if !ok {
		t.Fatal("Dispatch(I32, RANGE) not resolvable")
	}
	uv := scanval.UserValue{I32Lo: 10, I32Hi: 20}
	var flags scantype.WidthFlags

	for _, v := range []int32{10, 20} {
		view := encodeI32(v)
		if w := r(view, nil, &uv, &flags); w != 4 {
			t.Errorf("RANGE(%d) width = %d, want 4 (boundary must match)", v, w)
		}
	}
	for _, v := range []int32{9, 21} {
		view := encodeI32(v)
		if w := r(view, nil, &uv, &flags); w != 0 {
			t.Errorf("RANGE(%d) width = %d, want 0 (one past boundary)", v, w)
		}
	}
}

func TestChangedRequiresOldValue(t *testing.T) {
	r, ok := Dispatch(scantype.I32, scantype.Changed, false)
	if !ok {
		t.Fatal("Dispatch(I32, CHANGED) not resolvable")
	}
	uv := scanval.UserValue{}
	var flags scantype.WidthFlags
	view := encodeI32(42)

	if w := r(view, nil, &uv, &flags); w != 0 {
		t.Errorf("CHANGED without old value matched width = %d, want 0", w)
	}

	same := &scanval.OldValue{Bytes: encodeI32(42), Width: scantype.B32}
	if w := r(view, same, &uv, &flags); w != 0 {
		t.Errorf("CHANGED with old==cur matched width = %d, want 0", w)
	}

	diff := &scanval.OldValue{Bytes: encodeI32(41), Width: scantype.B32}
	if w := r(view, diff, &uv, &flags); w != 4 {
		t.Errorf("CHANGED with old!=cur matched width = %d, want 4", w)
	}
}

func TestIncreasedByExactDelta(t *testing.T) {
	r, ok := Dispatch(scantype.I32, scantype.IncreasedBy, false)
	if !ok {
		t.Fatal("Dispatch(I32, INCREASED_BY) not resolvable")
	}
	uv := scanval.UserValue{I32Lo: 50}
	old := &scanval.OldValue{Bytes: encodeI32(100), Width: scantype.B32}
	var flags scantype.WidthFlags
	if w := r(encodeI32(150), old, &uv, &flags); w != 4 {
		t.Errorf("INCREASED_BY(50): width = %d, want 4", w)
	}
	if w := r(encodeI32(151), old, &uv, &flags); w != 0 {
		t.Errorf("INCREASED_BY(50) on wrong delta: width = %d, want 0", w)
	}
}

func TestReverseEndianness(t *testing.T) {
	r, ok := Dispatch(scantype.U32, scantype.Equal, true)
	if !ok {
		t.Fatal("Dispatch(U32, EQUAL, reverse) not resolvable")
	}
	uv := scanval.FromU32(0x11223344)
	// Big-endian encoding of 0x11223344.
	view := []byte{0x11, 0x22, 0x33, 0x44}
	var flags scantype.WidthFlags
	if w := r(view, nil, &uv, &flags); w != 4 {
		t.Errorf("reversed EQUAL width = %d, want 4", w)
	}
}

func TestAnyIntReportsWidestMatch(t *testing.T) {
	r, ok := Dispatch(scantype.AnyInt, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch(ANY_INT, EQUAL) not resolvable")
	}
	// 5 matches as an 8-bit, 16-bit, 32-bit and 64-bit value here (all
	// the high bytes are zero), so the widest match, 8, must win.
	uv := scanval.UserValue{
		I8Lo: 5, I8Hi: 5, U8Lo: 5, U8Hi: 5,
		I16Lo: 5, I16Hi: 5, U16Lo: 5, U16Hi: 5,
		I32Lo: 5, I32Hi: 5, U32Lo: 5, U32Hi: 5,
		I64Lo: 5, I64Hi: 5, U64Lo: 5, U64Hi: 5,
	}
	view := make([]byte, 8)
	view[0] = 5
	var flags scantype.WidthFlags
	w := r(view, nil, &uv, &flags)
	if w != 8 {
		t.Errorf("ANY_INT matched width = %d, want 8", w)
	}
	if flags&scantype.B8 == 0 || flags&scantype.B64 == 0 {
		t.Errorf("flags = %v, want both B8 and B64 set", flags)
	}
}

func TestByteArrayMaskedEqual(t *testing.T) {
	r, ok := Dispatch(scantype.ByteArray, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch(BYTE_ARRAY, EQUAL) not resolvable")
	}
	uv := scanval.FromByteArray(
		[]byte{0xDE, 0xAD, 0xBE, 0xEF},
		[]byte{0xFF, 0xF0, 0xFF, 0xFF},
	)
	view := []byte{0xDE, 0xAF, 0xBE, 0xEF}
	var flags scantype.WidthFlags
	w := r(view, nil, &uv, &flags)
	if w != 4 {
		t.Errorf("masked BYTE_ARRAY match width = %d, want 4", w)
	}
	if flags&scantype.B8 == 0 || flags&scantype.FByteArray == 0 {
		t.Errorf("flags = %v, want B8|BYTE_ARRAY", flags)
	}
}

func TestStringEqual(t *testing.T) {
	r, ok := Dispatch(scantype.String, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch(STRING, EQUAL) not resolvable")
	}
	uv := scanval.FromString("Hello, World!")
	var flags scantype.WidthFlags
	w := r([]byte("Hello, World!"), nil, &uv, &flags)
	if w != len("Hello, World!") {
		t.Errorf("STRING match width = %d, want %d", w, len("Hello, World!"))
	}
	if flags&scantype.FString == 0 {
		t.Errorf("flags = %v, want STRING set", flags)
	}
}

// TestOperandlessMatchTypesAcceptNilUserValue covers the engine's nil-uv
// call path: FirstScan/RefineScan pass uv == nil for ANY, CHANGED,
// NOT_CHANGED, INCREASED and DECREASED (cmd/memscan's valueFromArgs
// returns no UserValue for those), so the routine must not dereference
// uv to evaluate them.
func TestOperandlessMatchTypesAcceptNilUserValue(t *testing.T) {
	view := encodeI32(42)
	old := &scanval.OldValue{Bytes: encodeI32(41), Width: scantype.B32}

	cases := []struct {
		name string
		mt   scantype.MatchType
		old  *scanval.OldValue
	}{
		{"ANY", scantype.Any, nil},
		{"CHANGED", scantype.Changed, old},
		{"NOT_CHANGED", scantype.NotChanged, old},
		{"INCREASED", scantype.Increased, old},
		{"DECREASED", scantype.Decreased, old},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, ok := Dispatch(scantype.I32, c.mt, false)
			if !ok {
				t.Fatalf("Dispatch(I32, %v) not resolvable", c.mt)
			}
			var flags scantype.WidthFlags
			r(view, c.old, nil, &flags) // must not panic
		})
	}
}

func TestByteArrayAnyAcceptsNilUserValue(t *testing.T) {
	r, ok := Dispatch(scantype.ByteArray, scantype.Any, false)
	if !ok {
		t.Fatal("Dispatch(BYTE_ARRAY, ANY) not resolvable")
	}
	var flags scantype.WidthFlags
	if w := r([]byte{1, 2, 3, 4}, nil, nil, &flags); w != 0 {
		t.Errorf("BYTE_ARRAY ANY with nil uv matched width = %d, want 0", w)
	}
}

func TestStringAnyAcceptsNilUserValue(t *testing.T) {
	r, ok := Dispatch(scantype.String, scantype.Any, false)
	if !ok {
		t.Fatal("Dispatch(STRING, ANY) not resolvable")
	}
	var flags scantype.WidthFlags
	if w := r([]byte("hello"), nil, nil, &flags); w != 0 {
		t.Errorf("STRING ANY with nil uv matched width = %d, want 0", w)
	}
}

func TestRangeByteArrayNotWellFormed(t *testing.T) {
	if _, ok := Dispatch(scantype.ByteArray, scantype.Range, false); ok {
		t.Errorf("Dispatch(BYTE_ARRAY, RANGE) should not resolve")
	}
}

func encodeI32(v int32) []byte {
	u := uint32(v)
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}
