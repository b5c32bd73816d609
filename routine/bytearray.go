// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package routine

import (
	"bytes"

	"github.com/future-re/NewScanmem-sub002/bytescan"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// byteArrayRoutine builds the BYTE_ARRAY routine for matchType mt. RANGE,
// INCREASED_BY and DECREASED_BY have no second byte-array operand to
// compare against in scanval.UserValue, so those combinations are not
// well-formed for this data type and ok is false for them (see
// DESIGN.md).
func byteArrayRoutine(mt scantype.MatchType) (r Routine, ok bool) {
	switch mt {
	case scantype.Equal:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			var w int
			if uv.Mask != nil {
				w = bytescan.PrefixCompareMasked(view, uv.Pattern, uv.Mask, outFlags)
			} else {
				w = bytescan.PrefixCompare(view, uv.Pattern, outFlags)
			}
			if w > 0 {
				*outFlags |= scantype.FByteArray
			}
			return w
		}, true

	case scantype.NotEqual:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			width := len(uv.Pattern)
			if width == 0 || len(view) < width {
				return 0
			}
			var discard scantype.WidthFlags
			var eq int
			if uv.Mask != nil {
				eq = bytescan.PrefixCompareMasked(view, uv.Pattern, uv.Mask, &discard)
			} else {
				eq = bytescan.PrefixCompare(view, uv.Pattern, &discard)
			}
			if eq > 0 {
				return 0
			}
			*outFlags |= scantype.B8 | scantype.FByteArray
			return width
		}, true

	case scantype.Any:
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			if uv == nil {
				return 0
			}
			width := len(uv.Pattern)
			if width == 0 || len(view) < width {
				return 0
			}
			*outFlags |= scantype.B8 | scantype.FByteArray
			return width
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
			*outFlags |= scantype.B8 | scantype.FByteArray
			return width
		}, true

	case scantype.Greater, scantype.Less:
		wantPositive := mt == scantype.Greater
		return func(view []byte, _ *scanval.OldValue, uv *scanval.UserValue, outFlags *scantype.WidthFlags) int {
			width := len(uv.Pattern)
			if width == 0 || len(view) < width {
				return 0
			}
			cmp := bytes.Compare(view[:width], uv.Pattern)
			if (wantPositive && cmp <= 0) || (!wantPositive && cmp >= 0) {
				return 0
			}
			*outFlags |= scantype.B8 | scantype.FByteArray
			return width
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
			*outFlags |= scantype.B8 | scantype.FByteArray
			return width
		}, true

	default:
		return nil, false
	}
}
