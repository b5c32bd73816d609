// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanval holds the value model a scan pass is built from: the
// user-supplied predicate parameters (scanval.UserValue) and the
// per-match old-value context a refine pass consults (scanval.OldValue).
package scanval

import "github.com/future-re/NewScanmem-sub002/scantype"

// UserValue carries every field a routine might need, regardless of
// DataType: low/high scalars for every numeric width (low==high encodes
// a point predicate; RANGE uses both), an optional byte pattern with an
// equal-length mask, and a string value. Only the fields relevant to the
// declared DataType are read by a given routine.
type UserValue struct {
	I8Lo, I8Hi   int8
	I16Lo, I16Hi int16
	I32Lo, I32Hi int32
	I64Lo, I64Hi int64

	U8Lo, U8Hi   uint8
	U16Lo, U16Hi uint16
	U32Lo, U32Hi uint32
	U64Lo, U64Hi uint64

	F32Lo, F32Hi float32
	F64Lo, F64Hi float64

	Pattern []byte
	Mask    []byte

	Str string

	// Width is the declared width flag(s) for this value, per
	// scantype.WidthForType.
	Width scantype.WidthFlags
}

// Valid reports whether the value is internally consistent: if a Mask is
// present it must be the same length as Pattern (spec.md §3's invariant).
func (v *UserValue) Valid() bool {
	if v.Mask != nil && len(v.Mask) != len(v.Pattern) {
		return false
	}
	return true
}

// FromI8 returns a point UserValue for an int8.
func FromI8(v int8) UserValue { return UserValue{I8Lo: v, I8Hi: v, Width: scantype.B8} }

// FromU8 returns a point UserValue for a uint8.
func FromU8(v uint8) UserValue { return UserValue{U8Lo: v, U8Hi: v, Width: scantype.B8} }

// FromI16 returns a point UserValue for an int16.
func FromI16(v int16) UserValue { return UserValue{I16Lo: v, I16Hi: v, Width: scantype.B16} }

// FromU16 returns a point UserValue for a uint16.
func FromU16(v uint16) UserValue { return UserValue{U16Lo: v, U16Hi: v, Width: scantype.B16} }

// FromI32 returns a point UserValue for an int32.
func FromI32(v int32) UserValue { return UserValue{I32Lo: v, I32Hi: v, Width: scantype.B32} }

// FromU32 returns a point UserValue for a uint32.
func FromU32(v uint32) UserValue { return UserValue{U32Lo: v, U32Hi: v, Width: scantype.B32} }

// FromI64 returns a point UserValue for an int64.
func FromI64(v int64) UserValue { return UserValue{I64Lo: v, I64Hi: v, Width: scantype.B64} }

// FromU64 returns a point UserValue for a uint64.
func FromU64(v uint64) UserValue { return UserValue{U64Lo: v, U64Hi: v, Width: scantype.B64} }

// FromF32 returns a point UserValue for a float32.
func FromF32(v float32) UserValue { return UserValue{F32Lo: v, F32Hi: v, Width: scantype.B32} }

// FromF64 returns a point UserValue for a float64.
func FromF64(v float64) UserValue { return UserValue{F64Lo: v, F64Hi: v, Width: scantype.B64} }

// FromI8Range returns a RANGE UserValue for two int8 bounds. lo/hi need
// not be ordered: routines normalize via min/max (spec.md §4.3, §9's
// resolution of the "low > high" open question).
func FromI8Range(lo, hi int8) UserValue { return UserValue{I8Lo: lo, I8Hi: hi, Width: scantype.B8} }

// FromI16Range returns a RANGE UserValue for two int16 bounds.
func FromI16Range(lo, hi int16) UserValue {
	return UserValue{I16Lo: lo, I16Hi: hi, Width: scantype.B16}
}

// FromI32Range returns a RANGE UserValue for two int32 bounds.
func FromI32Range(lo, hi int32) UserValue {
	return UserValue{I32Lo: lo, I32Hi: hi, Width: scantype.B32}
}

// FromI64Range returns a RANGE UserValue for two int64 bounds.
func FromI64Range(lo, hi int64) UserValue {
	return UserValue{I64Lo: lo, I64Hi: hi, Width: scantype.B64}
}

// FromU8Range returns a RANGE UserValue for two uint8 bounds.
func FromU8Range(lo, hi uint8) UserValue { return UserValue{U8Lo: lo, U8Hi: hi, Width: scantype.B8} }

// FromU16Range returns a RANGE UserValue for two uint16 bounds.
func FromU16Range(lo, hi uint16) UserValue {
	return UserValue{U16Lo: lo, U16Hi: hi, Width: scantype.B16}
}

// FromU32Range returns a RANGE UserValue for two uint32 bounds.
func FromU32Range(lo, hi uint32) UserValue {
	return UserValue{U32Lo: lo, U32Hi: hi, Width: scantype.B32}
}

// FromU64Range returns a RANGE UserValue for two uint64 bounds.
func FromU64Range(lo, hi uint64) UserValue {
	return UserValue{U64Lo: lo, U64Hi: hi, Width: scantype.B64}
}

// FromF32Range returns a RANGE UserValue for two float32 bounds.
func FromF32Range(lo, hi float32) UserValue {
	return UserValue{F32Lo: lo, F32Hi: hi, Width: scantype.B32}
}

// FromF64Range returns a RANGE UserValue for two float64 bounds.
func FromF64Range(lo, hi float64) UserValue {
	return UserValue{F64Lo: lo, F64Hi: hi, Width: scantype.B64}
}

// FromString returns a UserValue matched by exact byte equality.
func FromString(s string) UserValue {
	return UserValue{Str: s, Width: scantype.FString}
}

// FromByteArray returns a UserValue matched via bytescan's prefix
// compare. mask may be nil, meaning every byte is fixed.
func FromByteArray(pattern, mask []byte) UserValue {
	return UserValue{Pattern: pattern, Mask: mask, Width: scantype.B8 | scantype.FByteArray}
}

// I64Bounds returns the normalized (min, max) bounds for the int64 low/high
// pair, symmetric regardless of which field is larger.
func (v *UserValue) I64Bounds() (lo, hi int64) {
	if v.I64Lo <= v.I64Hi {
		return v.I64Lo, v.I64Hi
	}
	return v.I64Hi, v.I64Lo
}

// U64Bounds returns the normalized (min, max) bounds for the uint64
// low/high pair.
func (v *UserValue) U64Bounds() (lo, hi uint64) {
	if v.U64Lo <= v.U64Hi {
		return v.U64Lo, v.U64Hi
	}
	return v.U64Hi, v.U64Lo
}

// F64Bounds returns the normalized (min, max) bounds for the float64
// low/high pair.
func (v *UserValue) F64Bounds() (lo, hi float64) {
	if v.F64Lo <= v.F64Hi {
		return v.F64Lo, v.F64Hi
	}
	return v.F64Hi, v.F64Lo
}

// FromAnyInt returns a point UserValue with v truncated into every
// integer width field, signed and unsigned alike. ANY_INT's routine
// (routine.anyIntRoutine) tries each width's own Lo/Hi fields
// independently, so every field must carry the same logical value for
// the union-of-widths semantics in spec.md §4.5 to see a consistent
// predicate at each width.
func FromAnyInt(v int64) UserValue {
	return UserValue{
		I8Lo: int8(v), I8Hi: int8(v), U8Lo: uint8(v), U8Hi: uint8(v),
		I16Lo: int16(v), I16Hi: int16(v), U16Lo: uint16(v), U16Hi: uint16(v),
		I32Lo: int32(v), I32Hi: int32(v), U32Lo: uint32(v), U32Hi: uint32(v),
		I64Lo: v, I64Hi: v, U64Lo: uint64(v), U64Hi: uint64(v),
		Width: scantype.B8 | scantype.B16 | scantype.B32 | scantype.B64,
	}
}

// FromAnyIntRange returns a RANGE UserValue with [lo,hi] truncated into
// every integer width field.
func FromAnyIntRange(lo, hi int64) UserValue {
	return UserValue{
		I8Lo: int8(lo), I8Hi: int8(hi), U8Lo: uint8(lo), U8Hi: uint8(hi),
		I16Lo: int16(lo), I16Hi: int16(hi), U16Lo: uint16(lo), U16Hi: uint16(hi),
		I32Lo: int32(lo), I32Hi: int32(hi), U32Lo: uint32(lo), U32Hi: uint32(hi),
		I64Lo: lo, I64Hi: hi, U64Lo: uint64(lo), U64Hi: uint64(hi),
		Width: scantype.B8 | scantype.B16 | scantype.B32 | scantype.B64,
	}
}

// FromAnyFloat returns a point UserValue with v set for both float
// widths, for ANY_FLOAT's routine to try independently.
func FromAnyFloat(v float64) UserValue {
	return UserValue{
		F32Lo: float32(v), F32Hi: float32(v), F64Lo: v, F64Hi: v,
		Width: scantype.B32 | scantype.B64,
	}
}

// FromAnyFloatRange returns a RANGE UserValue with [lo,hi] set for both
// float widths.
func FromAnyFloatRange(lo, hi float64) UserValue {
	return UserValue{
		F32Lo: float32(lo), F32Hi: float32(hi), F64Lo: lo, F64Hi: hi,
		Width: scantype.B32 | scantype.B64,
	}
}

// FromAnyNumber returns a point UserValue carrying v in every integer
// and float width field, for ANY_NUMBER to try both families.
func FromAnyNumber(v float64) UserValue {
	iv := FromAnyInt(int64(v))
	fv := FromAnyFloat(v)
	iv.F32Lo, iv.F32Hi, iv.F64Lo, iv.F64Hi = fv.F32Lo, fv.F32Hi, fv.F64Lo, fv.F64Hi
	iv.Width |= fv.Width
	return iv
}

// FromAnyNumberRange returns a RANGE UserValue carrying [lo,hi] in every
// integer and float width field.
func FromAnyNumberRange(lo, hi float64) UserValue {
	iv := FromAnyIntRange(int64(lo), int64(hi))
	fv := FromAnyFloatRange(lo, hi)
	iv.F32Lo, iv.F32Hi, iv.F64Lo, iv.F64Hi = fv.F32Lo, fv.F32Hi, fv.F64Lo, fv.F64Hi
	iv.Width |= fv.Width
	return iv
}

// OldValue is the per-match context a refine pass consults: the raw bytes
// observed at an address during the previous pass, plus the width flags
// that were live there. Its lifetime runs from the moment a match is
// recorded until the next pass replaces the match-set that holds it
// (spec.md §3, §9 "Previous snapshot lifetime").
type OldValue struct {
	Bytes []byte
	Width scantype.WidthFlags
}
