// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytescan implements the prefix-compare and first-occurrence
// search primitives the BYTE_ARRAY routine is built on (spec.md §4.4):
// plain and masked variants of both, operating over the whole of the
// view they are given (callers slice it to the length they want).
package bytescan

import "github.com/future-re/NewScanmem-sub002/scantype"

// PrefixCompare compares pattern against the start of hay and, on
// success, returns len(pattern) and ORs scantype.B8 into flags. Returns 0
// without touching flags on failure or on an empty pattern.
func PrefixCompare(hay, pattern []byte, flags *scantype.WidthFlags) int {
	if len(pattern) == 0 || len(hay) < len(pattern) {
		return 0
	}
	for i, p := range pattern {
		if hay[i] != p {
			return 0
		}
	}
	*flags |= scantype.B8
	return len(pattern)
}

// PrefixCompareMasked compares pattern against the start of hay using
// mask: a position matches iff (hay[j] ^ pattern[j]) & mask[j] == 0. On
// success returns len(pattern) and ORs scantype.B8|scantype.FByteArray
// into flags. A length mismatch between pattern and mask, or an empty
// pattern, fails the compare and returns 0.
func PrefixCompareMasked(hay, pattern, mask []byte, flags *scantype.WidthFlags) int {
	if len(pattern) == 0 || len(mask) != len(pattern) || len(hay) < len(pattern) {
		return 0
	}
	for i := range pattern {
		if (hay[i]^pattern[i])&mask[i] != 0 {
			return 0
		}
	}
	*flags |= scantype.B8 | scantype.FByteArray
	return len(pattern)
}

// SearchPlain returns the offset of the first position in hay where
// PrefixCompare against pattern succeeds, or ok=false if there is none.
func SearchPlain(hay, pattern []byte) (offset int, ok bool) {
	if len(pattern) == 0 || len(hay) < len(pattern) {
		return 0, false
	}
	var discard scantype.WidthFlags
	for i := 0; i <= len(hay)-len(pattern); i++ {
		if PrefixCompare(hay[i:], pattern, &discard) > 0 {
			return i, true
		}
	}
	return 0, false
}

// SearchMasked returns the offset of the first position in hay where
// PrefixCompareMasked against pattern/mask succeeds, or ok=false if there
// is none.
func SearchMasked(hay, pattern, mask []byte) (offset int, ok bool) {
	if len(pattern) == 0 || len(mask) != len(pattern) || len(hay) < len(pattern) {
		return 0, false
	}
	var discard scantype.WidthFlags
	for i := 0; i <= len(hay)-len(pattern); i++ {
		if PrefixCompareMasked(hay[i:], pattern, mask, &discard) > 0 {
			return i, true
		}
	}
	return 0, false
}
