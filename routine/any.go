// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package routine

import (
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// anyIntRoutine tries every integer width, both signed and unsigned
// interpretations, unions the matched width flags, and reports the
// largest matched width — never the narrowest, per spec.md §9's warning
// that under-reporting the match width corrupts dead-neighbor geometry
// on later passes.
func anyIntRoutine(mt scantype.MatchType) Routine {
	i8r, _ := numericRoutine(scantype.I8, mt)
	u8r, _ := numericRoutine(scantype.U8, mt)
	i16r, _ := numericRoutine(scantype.I16, mt)
	u16r, _ := numericRoutine(scantype.U16, mt)
	i32r, _ := numericRoutine(scantype.I32, mt)
	u32r, _ := numericRoutine(scantype.U32, mt)
	i64r, _ := numericRoutine(scantype.I64, mt)
	u64r, _ := numericRoutine(scantype.U64, mt)

	return func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
		matched := 0
		try := func(r Routine, width int) {
			if r(view, old, uv, outFlags) > 0 && width > matched {
				matched = width
			}
		}
		try(i8r, 1)
		try(u8r, 1)
		try(i16r, 2)
		try(u16r, 2)
		try(i32r, 4)
		try(u32r, 4)
		try(i64r, 8)
		try(u64r, 8)
		return matched
	}
}

// anyFloatRoutine tries both float widths and reports the largest match.
func anyFloatRoutine(mt scantype.MatchType) Routine {
	f32r, _ := numericRoutine(scantype.F32, mt)
	f64r, _ := numericRoutine(scantype.F64, mt)

	return func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
		matched := 0
		if f32r(view, old, uv, outFlags) > 0 {
			matched = 4
		}
		if f64r(view, old, uv, outFlags) > 0 && 8 > matched {
			matched = 8
		}
		return matched
	}
}

// anyNumberRoutine tries every integer width, then both float widths
// (spec.md §4.5: "Integer matches take precedence only in that they are
// checked first; a float match is recorded independently").
func anyNumberRoutine(mt scantype.MatchType) Routine {
	intR := anyIntRoutine(mt)
	floatR := anyFloatRoutine(mt)

	return func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
		matched := intR(view, old, uv, outFlags)
		if w := floatR(view, old, uv, outFlags); w > matched {
			matched = w
		}
		return matched
	}
}
