// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package routine

import (
	"bytes"

	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// stringRoutine builds the STRING routine for matchType mt. As with
// BYTE_ARRAY, RANGE/INCREASED_BY/DECREASED_BY have no second string
// operand and are not well-formed combinations here.
func stringRoutine(mt scantype.MatchType) (Routine, bool) {
	switch mt {
	case scantype.Equal:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			pattern := []byte(uv.Str)
			if len(pattern) == 0 || len(view) < len(pattern) {
				return 0
			}
			if !bytes.Equal(view[:len(pattern)], pattern) {
				return 0
			}
			*outFlags |= scantype.FString
			return len(pattern)
		}, true

	case scantype.NotEqual:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			pattern := []byte(uv.Str)
			if len(pattern) == 0 || len(view) < len(pattern) {
				return 0
			}
			if bytes.Equal(view[:len(pattern)], pattern) {
				return 0
			}
			*outFlags |= scantype.FString
			return len(pattern)
		}, true

	case scantype.Any:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			if uv == nil {
				return 0
			}
			pattern := []byte(uv.Str)
			if len(pattern) == 0 || len(view) < len(pattern) {
				return 0
			}
			*outFlags |= scantype.FString
			return len(pattern)
		}, true

	case scantype.Changed, scantype.NotChanged:
		wantEqual := mt == scantype.NotChanged
		return func(view []byte, old *scanval.OldValue, _ *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			if old == nil || len(old.Bytes) == 0 || len(view) < len(old.Bytes) {
				return 0
			}
			width := len(old.Bytes)
			isEqual := bytes.Equal(view[:width], old.Bytes)
			if isEqual != wantEqual {
				return 0
			}
			*outFlags |= scantype.FString
			return width
		}, true

	case scantype.Greater, scantype.Less:
		wantPositive := mt == scantype.Greater
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			pattern := []byte(uv.Str)
			if len(pattern) == 0 || len(view) < len(pattern) {
				return 0
			}
			cmp := bytes.Compare(view[:len(pattern)], pattern)
			if (wantPositive && cmp <= 0) || (!wantPositive && cmp >= 0) {
				return 0
			}
			*outFlags |= scantype.FString
			return len(pattern)
		}, true

	case scantype.Increased, scantype.Decreased:
		wantPositive := mt == scantype.Increased
		return func(view []byte, old *scanval.OldValue, _ *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			if old == nil || len(old.Bytes) == 0 || len(view) < len(old.Bytes) {
				return 0
			}
			width := len(old.Bytes)
			cmp := bytes.Compare(view[:width], old.Bytes)
			if (wantPositive && cmp <= 0) || (!wantPositive && cmp >= 0) {
				return 0
			}
			*outFlags |= scantype.FString
			return width
		}, true

	default:
		return nil, false
	}
}
