// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package routine

import (
	"github.com/future-re/NewScanmem-sub002/membuf"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// Ordered constrains evalOrdered to the scalar kinds a comparison
// predicate can be evaluated over: every integer width plus both floats.
type Ordered interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// evalOrdered implements the match-type semantics table in spec.md §4.5
// for any ordered scalar type. hasOld gates the predicates that require a
// previous-snapshot value; when hasOld is false those predicates fail,
// which is how the "no compatible old value ⇒ return 0" rule of §4.5
// falls out without special-casing it at the call site.
func evalOrdered[T Ordered](cur, old T, hasOld bool, mt scantype.MatchType, lo, hi T) bool {
	switch mt {
	case scantype.Equal:
		return cur == lo
	case scantype.NotEqual:
		return cur != lo
	case scantype.Greater:
		return cur > lo
	case scantype.Less:
		return cur < lo
	case scantype.Range:
		mn, mx := lo, hi
		if mn > mx {
			mn, mx = mx, mn
		}
		return cur >= mn && cur <= mx
	case scantype.Any:
		return true
	case scantype.Changed:
		return hasOld && cur != old
	case scantype.NotChanged:
		return hasOld && cur == old
	case scantype.Increased:
		return hasOld && cur > old
	case scantype.Decreased:
		return hasOld && cur < old
	case scantype.IncreasedBy:
		return hasOld && cur-old == lo
	case scantype.DecreasedBy:
		return hasOld && old-cur == lo
	default:
		return false
	}
}

// decodeFixed decodes the first sizeof(T) bytes of b in host order,
// reporting false if b is too short.
func decodeFixed[T membuf.Scalar](b []byte) (T, bool) {
	buf := membuf.NewFromBytes(b)
	return membuf.TryGet[T](buf)
}

// makeRoutine builds a Routine for one fixed-width ordered scalar type.
func makeRoutine[T Ordered](width int, flag scantype.WidthFlags, bounds func(*scanval.UserValue) (T, T), mt scantype.MatchType) Routine {
	return func(view []byte, old *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
		if len(view) < width {
			return 0
		}
		cur, ok := decodeFixed[T](view[:width])
		if !ok {
			return 0
		}
		var oldVal T
		hasOld := false
		if old != nil && len(old.Bytes) >= width {
			if v, ok2 := decodeFixed[T](old.Bytes); ok2 {
				oldVal = v
				hasOld = true
			}
		}
		// uv is nil for operand-less match types (ANY, CHANGED, NOT_CHANGED,
		// INCREASED, DECREASED): evalOrdered never reads lo/hi for those, so
		// zero bounds are safe and bounds(uv) must not be called on a nil uv.
		var lo, hi T
		if uv != nil {
			lo, hi = bounds(uv)
		}
		if !evalOrdered(cur, oldVal, hasOld, mt, lo, hi) {
			return 0
		}
		*outFlags |= flag
		return width
	}
}

func numericRoutine(dt scantype.DataType, mt scantype.MatchType) (Routine, bool) {
	switch dt {
	case scantype.I8:
		return makeRoutine[int8](1, scantype.B8, func(uv *scanval.UserValue) (int8, int8) { return uv.I8Lo, uv.I8Hi }, mt), true
	case scantype.U8:
		return makeRoutine[uint8](1, scantype.B8, func(uv *scanval.UserValue) (uint8, uint8) { return uv.U8Lo, uv.U8Hi }, mt), true
	case scantype.I16:
		return makeRoutine[int16](2, scantype.B16, func(uv *scanval.UserValue) (int16, int16) { return uv.I16Lo, uv.I16Hi }, mt), true
	case scantype.U16:
		return makeRoutine[uint16](2, scantype.B16, func(uv *scanval.UserValue) (uint16, uint16) { return uv.U16Lo, uv.U16Hi }, mt), true
	case scantype.I32:
		return makeRoutine[int32](4, scantype.B32, func(uv *scanval.UserValue) (int32, int32) { return uv.I32Lo, uv.I32Hi }, mt), true
	case scantype.U32:
		return makeRoutine[uint32](4, scantype.B32, func(uv *scanval.UserValue) (uint32, uint32) { return uv.U32Lo, uv.U32Hi }, mt), true
	case scantype.I64:
		return makeRoutine[int64](8, scantype.B64, func(uv *scanval.UserValue) (int64, int64) { return uv.I64Lo, uv.I64Hi }, mt), true
	case scantype.U64:
		return makeRoutine[uint64](8, scantype.B64, func(uv *scanval.UserValue) (uint64, uint64) { return uv.U64Lo, uv.U64Hi }, mt), true
	case scantype.F32:
		return makeRoutine[float32](4, scantype.B32, func(uv *scanval.UserValue) (float32, float32) { return uv.F32Lo, uv.F32Hi }, mt), true
	case scantype.F64:
		return makeRoutine[float64](8, scantype.B64, func(uv *scanval.UserValue) (float64, float64) { return uv.F64Lo, uv.F64Hi }, mt), true
	default:
		return nil, false
	}
}
