// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// parseValue turns a value literal (the grammar left out of core scope
// by spec.md §1) into a scanval.UserValue for dt. Accepted forms:
//
//	123            decimal integer
//	0x7b           hex integer
//	10..20         inclusive range (works for ints and floats)
//	3.5            float
//	de ad ?? ef    hex byte array, "??" a masked-out wildcard byte
//	"hello"        raw string, double-quoted
func parseValue(dt scantype.DataType, lit string) (scanval.UserValue, error) {
	lit = strings.TrimSpace(lit)
	switch dt {
	case scantype.ByteArray:
		return parseByteArray(lit)
	case scantype.String:
		return parseString(lit)
	default:
		return parseNumeric(dt, lit)
	}
}

func parseString(lit string) (scanval.UserValue, error) {
	if len(lit) >= 2 && strings.HasPrefix(lit, `"`) && strings.HasSuffix(lit, `"`) {
		unquoted, err := strconv.Unquote(lit)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid string literal %q: %w", lit, err)
		}
		return scanval.FromString(unquoted), nil
	}
	return scanval.FromString(lit), nil
}

func parseByteArray(lit string) (scanval.UserValue, error) {
	fields := strings.Fields(lit)
	if len(fields) == 0 {
		return scanval.UserValue{}, fmt.Errorf("empty byte array literal")
	}
	pattern := make([]byte, len(fields))
	mask := make([]byte, len(fields))
	allFixed := true
	for i, f := range fields {
		if f == "??" || f == "?" {
			pattern[i] = 0
			mask[i] = 0x00
			allFixed = false
			continue
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid byte %q: %w", f, err)
		}
		pattern[i] = byte(b)
		mask[i] = 0xFF
	}
	if allFixed {
		return scanval.FromByteArray(pattern, nil), nil
	}
	return scanval.FromByteArray(pattern, mask), nil
}

func parseNumeric(dt scantype.DataType, lit string) (scanval.UserValue, error) {
	if lo, hi, ok := strings.Cut(lit, ".."); ok {
		return parseRange(dt, lo, hi)
	}

	switch dt {
	case scantype.AnyNumber:
		if v, err := strconv.ParseInt(lit, 0, 64); err == nil {
			return pointInt(dt, v), nil
		}
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid number %q: %w", lit, err)
		}
		return scanval.FromAnyNumber(v), nil
	case scantype.I8, scantype.I16, scantype.I32, scantype.I64, scantype.AnyInt:
		v, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid integer %q: %w", lit, err)
		}
		return pointInt(dt, v), nil
	case scantype.U8, scantype.U16, scantype.U32, scantype.U64:
		v, err := strconv.ParseUint(lit, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid unsigned integer %q: %w", lit, err)
		}
		return pointUint(dt, v), nil
	case scantype.F32, scantype.F64, scantype.AnyFloat:
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid float %q: %w", lit, err)
		}
		return pointFloat(dt, v), nil
	default:
		return scanval.UserValue{}, fmt.Errorf("unsupported data type for a scalar literal: %v", dt)
	}
}

func parseRange(dt scantype.DataType, loStr, hiStr string) (scanval.UserValue, error) {
	loStr, hiStr = strings.TrimSpace(loStr), strings.TrimSpace(hiStr)
	switch dt {
	case scantype.F32, scantype.F64, scantype.AnyFloat, scantype.AnyNumber:
		lo, err := strconv.ParseFloat(loStr, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range low %q: %w", loStr, err)
		}
		hi, err := strconv.ParseFloat(hiStr, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range high %q: %w", hiStr, err)
		}
		switch dt {
		case scantype.F32:
			return scanval.FromF32Range(float32(lo), float32(hi)), nil
		case scantype.AnyFloat:
			return scanval.FromAnyFloatRange(lo, hi), nil
		case scantype.AnyNumber:
			return scanval.FromAnyNumberRange(lo, hi), nil
		default:
			return scanval.FromF64Range(lo, hi), nil
		}
	case scantype.U8, scantype.U16, scantype.U32, scantype.U64:
		lo, err := strconv.ParseUint(loStr, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range low %q: %w", loStr, err)
		}
		hi, err := strconv.ParseUint(hiStr, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range high %q: %w", hiStr, err)
		}
		switch dt {
		case scantype.U8:
			return scanval.FromU8Range(uint8(lo), uint8(hi)), nil
		case scantype.U16:
			return scanval.FromU16Range(uint16(lo), uint16(hi)), nil
		case scantype.U32:
			return scanval.FromU32Range(uint32(lo), uint32(hi)), nil
		default:
			return scanval.FromU64Range(lo, hi), nil
		}
	default:
		lo, err := strconv.ParseInt(loStr, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range low %q: %w", loStr, err)
		}
		hi, err := strconv.ParseInt(hiStr, 0, 64)
		if err != nil {
			return scanval.UserValue{}, fmt.Errorf("invalid range high %q: %w", hiStr, err)
		}
		switch dt {
		case scantype.I8:
			return scanval.FromI8Range(int8(lo), int8(hi)), nil
		case scantype.I16:
			return scanval.FromI16Range(int16(lo), int16(hi)), nil
		case scantype.I32:
			return scanval.FromI32Range(int32(lo), int32(hi)), nil
		case scantype.AnyInt:
			return scanval.FromAnyIntRange(lo, hi), nil
		default:
			return scanval.FromI64Range(lo, hi), nil
		}
	}
}

func pointInt(dt scantype.DataType, v int64) scanval.UserValue {
	switch dt {
	case scantype.I8:
		return scanval.FromI8(int8(v))
	case scantype.I16:
		return scanval.FromI16(int16(v))
	case scantype.I32:
		return scanval.FromI32(int32(v))
	case scantype.AnyInt:
		return scanval.FromAnyInt(v)
	case scantype.AnyNumber:
		return scanval.FromAnyNumber(float64(v))
	default:
		return scanval.FromI64(v)
	}
}

func pointUint(dt scantype.DataType, v uint64) scanval.UserValue {
	switch dt {
	case scantype.U8:
		return scanval.FromU8(uint8(v))
	case scantype.U16:
		return scanval.FromU16(uint16(v))
	case scantype.U32:
		return scanval.FromU32(uint32(v))
	default:
		return scanval.FromU64(v)
	}
}

func pointFloat(dt scantype.DataType, v float64) scanval.UserValue {
	switch dt {
	case scantype.F32:
		return scanval.FromF32(float32(v))
	case scantype.AnyFloat:
		return scanval.FromAnyFloat(v)
	default:
		return scanval.FromF64(v)
	}
}

// parseDataType maps a CLI --type flag value to a scantype.DataType.
func parseDataType(s string) (scantype.DataType, error) {
	switch strings.ToLower(s) {
	case "i8":
		return scantype.I8, nil
	case "i16":
		return scantype.I16, nil
	case "i32":
		return scantype.I32, nil
	case "i64":
		return scantype.I64, nil
	case "u8":
		return scantype.U8, nil
	case "u16":
		return scantype.U16, nil
	case "u32":
		return scantype.U32, nil
	case "u64":
		return scantype.U64, nil
	case "f32":
		return scantype.F32, nil
	case "f64":
		return scantype.F64, nil
	case "int", "any_int":
		return scantype.AnyInt, nil
	case "float", "any_float":
		return scantype.AnyFloat, nil
	case "number", "any_number":
		return scantype.AnyNumber, nil
	case "bytes", "byte_array":
		return scantype.ByteArray, nil
	case "string":
		return scantype.String, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}

// parseMatchType maps a CLI --match flag value to a scantype.MatchType.
func parseMatchType(s string) (scantype.MatchType, error) {
	switch strings.ToLower(s) {
	case "eq", "equal":
		return scantype.Equal, nil
	case "ne", "not_equal":
		return scantype.NotEqual, nil
	case "gt", "greater":
		return scantype.Greater, nil
	case "lt", "less":
		return scantype.Less, nil
	case "range":
		return scantype.Range, nil
	case "any":
		return scantype.Any, nil
	case "changed":
		return scantype.Changed, nil
	case "unchanged", "not_changed":
		return scantype.NotChanged, nil
	case "increased":
		return scantype.Increased, nil
	case "decreased":
		return scantype.Decreased, nil
	case "increased_by":
		return scantype.IncreasedBy, nil
	case "decreased_by":
		return scantype.DecreasedBy, nil
	default:
		return 0, fmt.Errorf("unknown match type %q", s)
	}
}
