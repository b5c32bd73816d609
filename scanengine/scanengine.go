// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanengine drives a scan pass over a set of regions: a first
// scan evaluates a predicate against every byte offset of every
// region; a refine scan re-evaluates only previously recorded matches.
// Region work is sharded across a worker pool sized by available
// parallelism, the way the gomem example's ScanParallel splits a
// process's regions across goroutines and joins their results, and
// bulk-synchronous: every worker runs the same pass and the engine
// waits for all of them before returning, matching spec.md §4.9's "one
// completed pass" semantics and §4.11's single-writer MatchSet
// contract (each worker owns a private matchset.Builder and workers
// never touch a shared one concurrently).
package scanengine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/future-re/NewScanmem-sub002/matchset"
	"github.com/future-re/NewScanmem-sub002/procmem"
	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/routine"
	"github.com/future-re/NewScanmem-sub002/scanerr"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// Stats summarizes one completed pass (spec.md §4.9).
type Stats struct {
	RegionsVisited int
	RegionsSkipped int
	BytesScanned   int64
	MatchesFound   int
	Warnings       []string
}

func (s Stats) String() string {
	return fmt.Sprintf("regions: %d visited, %d skipped; %d bytes scanned; %d matches; %d warnings",
		s.RegionsVisited, s.RegionsSkipped, s.BytesScanned, s.MatchesFound, len(s.Warnings))
}

// defaultBlockSize bounds how much of a region is read into memory at
// once, so a single giant mapping doesn't force one huge allocation.
// spec.md §6 requires a default "at least one page"; sized off
// unix.Getpagesize rather than a hardcoded constant so it tracks the
// host's actual page size the way procmem's ptrace-derived reads are
// bounded by page granularity.
func defaultBlockSize() int {
	return unix.Getpagesize() * 256
}

// readOverlap is how many bytes of the previous chunk are kept in
// front of the next one read, so a match straddling a chunk boundary
// is not missed; it must be at least as wide as the widest fixed
// DataType (8 bytes) and is rounded up generously for byte-array/string
// patterns.
const readOverlap = 4096

// FirstScan evaluates routine at every step'th byte offset in each
// region and records matches into a fresh MatchSet. step is the probe
// stride (spec.md §6's "step", not an alignment guarantee: a step of 4
// over an I32 probe is common but region starts are never assumed
// aligned, per Design Notes §9). blockSize bounds how much of a region
// is read into memory at once; both fall back to their spec-mandated
// defaults (1, and 256 pages per defaultBlockSize) when <= 0.
func FirstScan(ctx context.Context, mem *procmem.Reader, regions []region.Region, dt scantype.DataType, uv *scanval.UserValue, r routine.Routine, step, blockSize int) (*matchset.MatchSet, Stats, error) {
	if step < 1 {
		step = 1
	}
	if blockSize < 1 {
		blockSize = defaultBlockSize()
	}
	return runPass(ctx, mem, regions, func(workerMem *procmem.Reader, reg region.Region, builder *matchset.Builder, stats *Stats) error {
		return scanRegion(ctx, workerMem, reg, uv, r, step, blockSize, builder, stats)
	})
}

// RefineScan re-evaluates routine only at addresses already present in
// prev, using each match's recorded old value, and records surviving
// matches into a fresh MatchSet. Addresses that now fall in no mapped
// region are dropped with a warning (spec.md §4.9's resolution: "no",
// they are not retried as new matches, and §9's resolution: the drop
// is reported, not silent).
func RefineScan(ctx context.Context, mem *procmem.Reader, regions []region.Region, prev *matchset.MatchSet, dt scantype.DataType, uv *scanval.UserValue, r routine.Routine) (*matchset.MatchSet, Stats, error) {
	byRegion, dropWarnings := partitionByRegion(prev, regions)

	out := matchset.New()
	var stats Stats
	stats.Warnings = append(stats.Warnings, dropWarnings...)
	var mu sync.Mutex

	work := make([]region.Region, 0, len(byRegion))
	for reg := range byRegion {
		work = append(work, reg)
	}
	sort.Slice(work, func(i, j int) bool { return work[i].Start < work[j].Start })

	err := shard(ctx, mem, work, func(workerMem *procmem.Reader, reg region.Region) error {
		swaths := byRegion[reg]
		local := matchset.New()
		builder := matchset.NewBuilder(local)
		var localStats Stats
		if err := refineRegion(ctx, workerMem, reg, swaths, uv, r, builder, &localStats); err != nil {
			return err
		}
		builder.Flush()

		mu.Lock()
		out.Merge(local)
		stats.RegionsVisited += localStats.RegionsVisited
		stats.RegionsSkipped += localStats.RegionsSkipped
		stats.BytesScanned += localStats.BytesScanned
		stats.Warnings = append(stats.Warnings, localStats.Warnings...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	stats.MatchesFound = out.Count()
	return out, stats, nil
}

// runPass shards regions across workers and merges their per-region
// MatchSets, in the pattern FirstScan uses.
func runPass(ctx context.Context, mem *procmem.Reader, regions []region.Region, perRegion func(*procmem.Reader, region.Region, *matchset.Builder, *Stats) error) (*matchset.MatchSet, Stats, error) {
	out := matchset.New()
	var stats Stats
	var mu sync.Mutex

	err := shard(ctx, mem, regions, func(workerMem *procmem.Reader, reg region.Region) error {
		local := matchset.New()
		builder := matchset.NewBuilder(local)
		var localStats Stats
		if err := perRegion(workerMem, reg, builder, &localStats); err != nil {
			return err
		}
		builder.Flush()

		mu.Lock()
		out.Merge(local)
		stats.RegionsVisited += localStats.RegionsVisited
		stats.RegionsSkipped += localStats.RegionsSkipped
		stats.BytesScanned += localStats.BytesScanned
		stats.Warnings = append(stats.Warnings, localStats.Warnings...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	stats.MatchesFound = out.Count()
	return out, stats, nil
}

// shard runs work over regions using min(GOMAXPROCS, len(regions))
// workers, balancing regions across workers by accumulated byte size
// so one oversized mapping doesn't strand the rest of the pool idle.
// Each worker goroutine opens its own procmem.Reader off mem
// (spec.md §4.7/§4.10/§4.11/§5: concurrent reads on a single handle are
// not required to be safe, so every worker gets a private handle) and
// closes it on exit; each worker goroutine uses mem only to call
// OpenReader for its private handle, and mem is never used for a
// ReadAt concurrently with the workers.
func shard(ctx context.Context, mem *procmem.Reader, regions []region.Region, work func(*procmem.Reader, region.Region) error) error {
	if len(regions) == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > len(regions) {
		workers = len(regions)
	}
	if workers < 1 {
		workers = 1
	}

	buckets := balancedBuckets(regions, workers)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i, bucket := range buckets {
		wg.Add(1)
		go func(i int, bucket []region.Region) {
			defer wg.Done()
			workerMem, err := mem.OpenReader()
			if err != nil {
				errs[i] = err
				return
			}
			defer workerMem.Detach()
			for _, reg := range bucket {
				if ctx.Err() != nil {
					errs[i] = scanerr.Wrap(scanerr.Cancelled, "scan pass", ctx.Err())
					return
				}
				if err := work(workerMem, reg); err != nil {
					errs[i] = err
					return
				}
			}
		}(i, bucket)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// balancedBuckets distributes regions across n buckets using a greedy
// largest-first assignment to the currently lightest bucket, so total
// bytes per worker stay roughly even even when region sizes vary
// wildly (a single process heap can dwarf every other mapping).
func balancedBuckets(regions []region.Region, n int) [][]region.Region {
	sorted := make([]region.Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size() > sorted[j].Size() })

	buckets := make([][]region.Region, n)
	loads := make([]int64, n)
	for _, reg := range sorted {
		lightest := 0
		for i := 1; i < n; i++ {
			if loads[i] < loads[lightest] {
				lightest = i
			}
		}
		buckets[lightest] = append(buckets[lightest], reg)
		loads[lightest] += reg.Size()
	}
	return buckets
}

func scanRegion(ctx context.Context, mem *procmem.Reader, reg region.Region, uv *scanval.UserValue, r routine.Routine, step, blockSize int, builder *matchset.Builder, stats *Stats) error {
	size := reg.Size()
	if size <= 0 {
		stats.RegionsSkipped++
		return nil
	}

	buf := make([]byte, 0, int64(blockSize)+readOverlap)
	var base uint64 = uint64(reg.Start)
	remaining := size
	var carry []byte

	for remaining > 0 {
		if ctx.Err() != nil {
			return scanerr.Wrap(scanerr.Cancelled, "scan region", ctx.Err())
		}
		want := int64(blockSize)
		if want > remaining {
			want = remaining
		}
		chunk := buf[:want]
		n, err := mem.ReadAt(base, chunk)
		if err != nil || int64(n) != want {
			stats.RegionsSkipped++
			stats.Warnings = append(stats.Warnings, warnf("region 0x%x-0x%x: %v", reg.Start, reg.End, err))
			return nil
		}

		view := append(carry, chunk...)
		windowBase := base - uint64(len(carry))
		usableEnd := len(view)
		if remaining > want {
			usableEnd = len(view) - readOverlap
			if usableEnd < 0 {
				usableEnd = len(view)
			}
		}

		// startOff keeps the probe stride aligned to reg.Start across
		// chunk boundaries: step is a stride, not an alignment
		// guarantee (spec.md §9), so the phase must carry over rather
		// than reset to 0 at the top of every chunk.
		startOff := 0
		if step > 1 {
			sinceStart := windowBase - uint64(reg.Start)
			phase := int(sinceStart % uint64(step))
			if phase != 0 {
				startOff = step - phase
			}
		}
		for off := startOff; off < usableEnd; off += step {
			var flags scantype.WidthFlags
			w := r(view[off:], nil, uv, &flags)
			if w == 0 {
				continue
			}
			addMatch(builder, windowBase+uint64(off), view[off:off+w], flags, w)
		}
		stats.BytesScanned += int64(usableEnd)

		if remaining > want {
			keep := readOverlap
			if keep > len(view) {
				keep = len(view)
			}
			carry = append([]byte(nil), view[len(view)-keep:]...)
		} else {
			carry = nil
		}
		base += uint64(want)
		remaining -= want
	}
	stats.RegionsVisited++
	return nil
}

// addMatch records one match of width w starting at addr: the first
// byte carries the matched flags and width, the remaining w-1 bytes
// are dead neighbors carrying only their observed value (spec.md §3's
// swath invariant and §9's "live byte" / "dead byte" distinction).
func addMatch(builder *matchset.Builder, addr uint64, bytes []byte, flags scantype.WidthFlags, w int) {
	for j := 0; j < w; j++ {
		rec := matchset.ByteRecord{OldByte: bytes[j]}
		if j == 0 {
			rec.Flags = flags
			rec.Width = w
		}
		builder.Add(addr+uint64(j), rec)
	}
}

func refineRegion(ctx context.Context, mem *procmem.Reader, reg region.Region, swaths []matchset.Swath, uv *scanval.UserValue, r routine.Routine, builder *matchset.Builder, stats *Stats) error {
	for _, s := range swaths {
		if ctx.Err() != nil {
			return scanerr.Wrap(scanerr.Cancelled, "refine region", ctx.Err())
		}
		buf := make([]byte, len(s.Bytes)+8)
		n, err := mem.ReadAt(s.FirstAddress, buf)
		if err != nil || n == 0 {
			stats.RegionsSkipped++
			stats.Warnings = append(stats.Warnings, warnf("refine at 0x%x: %v", s.FirstAddress, err))
			continue
		}
		buf = buf[:n]

		for i, rec := range s.Bytes {
			if !rec.Live() || i >= len(buf) {
				continue
			}
			width := rec.Width
			if width < 1 {
				width = 1
			}
			oldBytes := make([]byte, 0, width)
			for j := i; j < len(s.Bytes) && len(oldBytes) < width; j++ {
				oldBytes = append(oldBytes, s.Bytes[j].OldByte)
			}
			old := &scanval.OldValue{Bytes: oldBytes, Width: rec.Flags}
			var flags scantype.WidthFlags
			w := r(buf[i:], old, uv, &flags)
			if w == 0 {
				continue
			}
			if i+w > len(buf) {
				w = len(buf) - i
			}
			addMatch(builder, s.FirstAddress+uint64(i), buf[i:i+w], flags, w)
			stats.BytesScanned += int64(w)
		}
	}
	stats.RegionsVisited++
	return nil
}

// partitionByRegion groups prev's swaths by the region.Region that
// contains each swath's start address. A swath whose address no
// longer falls within any currently enumerated region (the target
// unmapped it between passes) is dropped and reported in the returned
// warning list, per spec.md §9's resolution: "the match is dropped and
// a warning emitted; do not silently retain stale addresses."
func partitionByRegion(prev *matchset.MatchSet, regions []region.Region) (map[region.Region][]matchset.Swath, []string) {
	sorted := make([]region.Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make(map[region.Region][]matchset.Swath)
	var warnings []string
	for _, s := range prev.Swaths() {
		idx := sort.Search(len(sorted), func(i int) bool { return sorted[i].End > region.Address(s.FirstAddress) })
		if idx == len(sorted) || sorted[idx].Start > region.Address(s.FirstAddress) {
			warnings = append(warnings, warnf("refine: swath at 0x%x no longer falls within any mapped region, dropped", s.FirstAddress))
			continue
		}
		out[sorted[idx]] = append(out[sorted[idx]], s)
	}
	return out, warnings
}

func warnf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
