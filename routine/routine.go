// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package routine implements the scan-routine dispatch factory
// (spec.md §4.5): given a data type, match type and endianness, it
// selects the concrete comparator the scan engine invokes
// once per probe position. The shape mirrors the teacher's function-
// pointer dispatch in program/server (ptraceCont/ptracePeek etc. are
// selected by call site, not by table, but the same "a tuple selects a
// concrete operation" idea is lifted wholesale for scanmem's
// (dataType, matchType) keyed lookup).
package routine

import (
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// Routine compares the memory at the start of view against uv (and, for
// predicates that need history, old) and reports how many bytes starting
// at view[0] the match covers. A return of 0 means no match. outFlags is
// ORed with the width flag(s) the match satisfies; it is never cleared.
type Routine func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int

// Dispatch returns the routine for (dataType, matchType), or ok=false if
// the combination has no well-formed resolution (spec.md §4.5's "every
// pair is resolvable" invariant is scoped to well-formed operands; see
// DESIGN.md for the documented exceptions, namely RANGE and
// INCREASED_BY/DECREASED_BY on BYTE_ARRAY/STRING, which have no second
// operand to compare against).
func Dispatch(dataType scantype.DataType, matchType scantype.MatchType, reverseEndian bool) (Routine, bool) {
	base, ok := lookup(dataType, matchType)
	if !ok {
		return nil, false
	}
	if !reverseEndian {
		return base, true
	}
	return swapped(dataType, base), true
}

func lookup(dataType scantype.DataType, matchType scantype.MatchType) (Routine, bool) {
	switch dataType {
	case scantype.I8, scantype.I16, scantype.I32, scantype.I64,
		scantype.U8, scantype.U16, scantype.U32, scantype.U64,
		scantype.F32, scantype.F64:
		return numericRoutine(dataType, matchType)
	case scantype.AnyInt:
		return anyIntRoutine(matchType), true
	case scantype.AnyFloat:
		return anyFloatRoutine(matchType), true
	case scantype.AnyNumber:
		return anyNumberRoutine(matchType), true
	case scantype.ByteArray:
		return byteArrayRoutine(matchType)
	case scantype.String:
		return stringRoutine(matchType)
	default:
		return nil, false
	}
}

// swapped wraps base so that the view is byte-swapped (per the declared
// width of dataType) before base runs. Byte arrays and strings have no
// endianness and are returned unwrapped. ANY_INT, ANY_FLOAT and
// ANY_NUMBER have no single declared width and are returned unwrapped
// too, so reverseEndian has no effect on them.
func swapped(dataType scantype.DataType, base Routine) Routine {
	w := scantype.ByteWidth(dataType)
	if w <= 1 {
		return base
	}
	return func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
		if len(view) < w {
			return 0
		}
		swappedView := make([]byte, len(view))
		copy(swappedView, view)
		reverseBytes(swappedView[:w])
		var swappedOld *scanval.OldValue
		if old != nil && len(old.Bytes) >= w {
			ob := make([]byte, len(old.Bytes))
			copy(ob, old.Bytes)
			reverseBytes(ob[:w])
			swappedOld = &scanval.OldValue{Bytes: ob, Width: old.Width}
		} else {
			swappedOld = old
		}
		return base(swappedView, swappedOld, uv, outFlags)
	}
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
