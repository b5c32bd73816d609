// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanengine

import (
	"context"
	"os"
	"testing"
	"unsafe"

	"github.com/future-re/NewScanmem-sub002/matchset"
	"github.com/future-re/NewScanmem-sub002/procmem"
	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/routine"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

func addressOf(b *byte) uint64 { return uint64(uintptr(unsafe.Pointer(b))) }

func TestFirstScanFindsKnownValue(t *testing.T) {
	var marker int32 = 0x1337
	addr := addressOf((*byte)(unsafe.Pointer(&marker)))

	mem, err := procmem.Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer mem.Detach()

	regions := []region.Region{{
		Start: region.Address(addr - 64),
		End:   region.Address(addr + 64),
	}}

	r, ok := routine.Dispatch(scantype.I32, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch not resolvable")
	}
	uv := scanval.FromI32(0x1337)

	ms, stats, err := FirstScan(context.Background(), mem, regions, scantype.I32, &uv, r, 1, 0)
	if err != nil {
		t.Fatalf("FirstScan: %v", err)
	}
	if stats.RegionsVisited != 1 {
		t.Errorf("RegionsVisited = %d, want 1", stats.RegionsVisited)
	}
	if _, found := ms.At(addr); !found {
		t.Errorf("expected a match recorded at 0x%x", addr)
	}
}

func TestFirstScanHonorsStep(t *testing.T) {
	// Four consecutive 0x01 bytes: an EQUAL(1) I8 probe matches at every
	// offset with step 1, but only at every other offset with step 2.
	marker := [4]byte{1, 1, 1, 1}
	addr := addressOf(&marker[0])

	mem, err := procmem.Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer mem.Detach()

	regions := []region.Region{{Start: region.Address(addr), End: region.Address(addr + 4)}}
	r, ok := routine.Dispatch(scantype.I8, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch not resolvable")
	}
	uv := scanval.FromI8(1)

	ms, _, err := FirstScan(context.Background(), mem, regions, scantype.I8, &uv, r, 2, 0)
	if err != nil {
		t.Fatalf("FirstScan: %v", err)
	}
	if got := ms.Count(); got != 2 {
		t.Errorf("step=2 over 4 matching bytes found %d matches, want 2", got)
	}
}

func TestRefineScanDropsStaleMatchesOutsideRegions(t *testing.T) {
	mem, err := procmem.Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer mem.Detach()

	r, ok := routine.Dispatch(scantype.I32, scantype.Equal, false)
	if !ok {
		t.Fatal("Dispatch not resolvable")
	}
	uv := scanval.FromI32(1)

	prev := matchset.New()
	prev.AddSwath(matchset.Swath{FirstAddress: 0xdeadbeef00, Bytes: []matchset.ByteRecord{{OldByte: 1, Flags: scantype.B32}}})
	_, stats, err := RefineScan(context.Background(), mem, nil, prev, scantype.I32, &uv, r)
	if err != nil {
		t.Fatalf("RefineScan: %v", err)
	}
	if stats.RegionsVisited != 0 {
		t.Errorf("RegionsVisited = %d, want 0 when no regions contain the match", stats.RegionsVisited)
	}
	if len(stats.Warnings) == 0 {
		t.Error("expected a warning for the dropped out-of-region match, got none")
	}
}

func TestBalancedBucketsDistributesBySize(t *testing.T) {
	regions := []region.Region{
		{Start: 0, End: 1000},
		{Start: 1000, End: 1010},
		{Start: 1010, End: 1020},
		{Start: 1020, End: 1030},
	}
	buckets := balancedBuckets(regions, 2)
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(buckets))
	}
	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	if total != len(regions) {
		t.Errorf("buckets hold %d regions total, want %d", total, len(regions))
	}
	// Largest-first greedy: the 1000-byte region fills one bucket and
	// the three 10-byte regions all go to the lighter one.
	if len(buckets[0]) != 1 || buckets[0][0].Size() != 1000 || len(buckets[1]) != 3 {
		t.Errorf("buckets = %v, want the 1000-byte region alone and the three small regions together", buckets)
	}
}
