// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scantype defines the enumerations shared across the scan
// engine: the data type a predicate is evaluated against, the kind of
// predicate itself, and the per-byte width-flag bitset recorded in match
// storage.
package scantype

// DataType selects how a memory view is interpreted before a predicate is
// applied.
type DataType int

const (
	I8 DataType = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	AnyInt
	AnyFloat
	AnyNumber
	ByteArray
	String
)

func (d DataType) String() string {
	switch d {
	case I8:
		return "I8"
	case I16:
		return "I16"
	case I32:
		return "I32"
	case I64:
		return "I64"
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case U64:
		return "U64"
	case F32:
		return "F32"
	case F64:
		return "F64"
	case AnyInt:
		return "ANY_INT"
	case AnyFloat:
		return "ANY_FLOAT"
	case AnyNumber:
		return "ANY_NUMBER"
	case ByteArray:
		return "BYTE_ARRAY"
	case String:
		return "STRING"
	default:
		return "DataType(?)"
	}
}

// MatchType selects the predicate a routine evaluates.
type MatchType int

const (
	Equal MatchType = iota
	NotEqual
	Greater
	Less
	Range
	Any
	Changed
	NotChanged
	Increased
	Decreased
	IncreasedBy
	DecreasedBy
)

func (m MatchType) String() string {
	switch m {
	case Equal:
		return "EQUAL"
	case NotEqual:
		return "NOT_EQUAL"
	case Greater:
		return "GREATER"
	case Less:
		return "LESS"
	case Range:
		return "RANGE"
	case Any:
		return "ANY"
	case Changed:
		return "CHANGED"
	case NotChanged:
		return "NOT_CHANGED"
	case Increased:
		return "INCREASED"
	case Decreased:
		return "DECREASED"
	case IncreasedBy:
		return "INCREASED_BY"
	case DecreasedBy:
		return "DECREASED_BY"
	default:
		return "MatchType(?)"
	}
}

// NeedsOldValue reports whether m can only be evaluated against a
// previous-snapshot old value (spec.md §4.5's match-type table).
func (m MatchType) NeedsOldValue() bool {
	switch m {
	case Changed, NotChanged, Increased, Decreased, IncreasedBy, DecreasedBy:
		return true
	default:
		return false
	}
}

// WidthFlags is a bitset recording which byte widths a predicate matched
// at a given starting offset. A single byte may carry several flags at
// once (spec.md §3).
type WidthFlags uint8

const (
	B8 WidthFlags = 1 << iota
	B16
	B32
	B64
	FByteArray
	FString

	Empty WidthFlags = 0
)

// WidthForType returns the declared width flag for a fixed-width numeric
// DataType, per spec.md §4.3's mapping table. ANY_* and non-numeric types
// have no single width and return Empty.
func WidthForType(d DataType) WidthFlags {
	switch d {
	case I8, U8:
		return B8
	case I16, U16:
		return B16
	case I32, U32, F32:
		return B32
	case I64, U64, F64:
		return B64
	default:
		return Empty
	}
}

// ByteWidth returns the number of bytes a fixed-width DataType occupies,
// or 0 for the ANY_* / BYTE_ARRAY / STRING variants that have no fixed
// width.
func ByteWidth(d DataType) int {
	switch d {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	default:
		return 0
	}
}

func (f WidthFlags) String() string {
	names := []struct {
		flag WidthFlags
		name string
	}{
		{B8, "B8"}, {B16, "B16"}, {B32, "B32"}, {B64, "B64"},
		{FByteArray, "BYTE_ARRAY"}, {FString, "STRING"},
	}
	if f == Empty {
		return "EMPTY"
	}
	s := ""
	for _, n := range names {
		if f&n.flag != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}
