// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"context"
	"os"
	"testing"
	"unsafe"

	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

func TestPerformScanFirstThenRefine(t *testing.T) {
	var marker int32 = 777
	addr := uint64(uintptr(unsafe.Pointer(&marker)))

	sess, err := New(os.Getpid(), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	opts := Options{
		DataType:  scantype.I32,
		MatchType: scantype.Equal,
		Level:     region.AllReadable,
		Filter: func(r region.Region) bool {
			return uint64(r.Start) <= addr && addr < uint64(r.End)
		},
	}
	uv := scanval.FromI32(777)

	if _, err := sess.PerformScan(context.Background(), opts, &uv); err != nil {
		t.Fatalf("first PerformScan: %v", err)
	}
	if !sess.HasMatches() {
		t.Fatal("expected at least one match after first scan")
	}

	marker = 778
	uv2 := scanval.FromI32(778)
	opts.MatchType = scantype.Equal
	stats, err := sess.PerformScan(context.Background(), opts, &uv2)
	if err != nil {
		t.Fatalf("refine PerformScan: %v", err)
	}
	if stats.MatchesFound == 0 {
		t.Error("expected matches to survive refine with the updated value")
	}
}

func TestPerformScanRejectsBadMask(t *testing.T) {
	sess, err := New(os.Getpid(), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	uv := scanval.UserValue{Pattern: []byte{1, 2, 3}, Mask: []byte{1, 2}}
	_, err = sess.PerformScan(context.Background(), Options{DataType: scantype.ByteArray, MatchType: scantype.Equal}, &uv)
	if err == nil {
		t.Fatal("expected an error for mismatched mask length")
	}
}

func TestPerformScanRejectsRefineTypeWithoutPriorMatches(t *testing.T) {
	sess, err := New(os.Getpid(), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	_, err = sess.PerformScan(context.Background(), Options{DataType: scantype.I32, MatchType: scantype.Changed}, nil)
	if err == nil {
		t.Fatal("expected an error for CHANGED with no prior scan")
	}
}

func TestClearMatchesResetsToFirstScan(t *testing.T) {
	var marker int32 = 42
	addr := uint64(uintptr(unsafe.Pointer(&marker)))

	sess, err := New(os.Getpid(), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer sess.Close()

	opts := Options{
		DataType:  scantype.I32,
		MatchType: scantype.Equal,
		Level:     region.AllReadable,
		Filter: func(r region.Region) bool {
			return uint64(r.Start) <= addr && addr < uint64(r.End)
		},
	}
	uv := scanval.FromI32(42)
	if _, err := sess.PerformScan(context.Background(), opts, &uv); err != nil {
		t.Fatalf("PerformScan: %v", err)
	}
	sess.ClearMatches()
	if sess.HasMatches() {
		t.Error("expected no matches after ClearMatches")
	}
}
