// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner exposes the scan session a CLI or other front end
// drives: attach to a pid, run a first scan, narrow with refine
// scans, inspect matches. It composes region, procmem, scanengine,
// routine and matchset the way server.Server composes debugger state
// in program/server/server.go, but behind a plain method-call API
// instead of an RPC service, since spec.md's scope is a single local
// front end rather than a networked debugger.
package scanner

import (
	"context"
	"sync"

	"github.com/future-re/NewScanmem-sub002/matchset"
	"github.com/future-re/NewScanmem-sub002/procmem"
	"github.com/future-re/NewScanmem-sub002/region"
	"github.com/future-re/NewScanmem-sub002/routine"
	"github.com/future-re/NewScanmem-sub002/scanengine"
	"github.com/future-re/NewScanmem-sub002/scanerr"
	"github.com/future-re/NewScanmem-sub002/scantype"
	"github.com/future-re/NewScanmem-sub002/scanval"
)

// Options controls one scan pass. Step and BlockSize are first-scan-only
// knobs (spec.md §6): Step probes every Step-th byte instead of every
// byte (Step<1 means 1, a dense scan), and BlockSize sizes the chunks
// read from the target per region (BlockSize<1 means the engine's
// default). Both are ignored on a refine scan, which only re-reads
// previously recorded addresses.
type Options struct {
	DataType      scantype.DataType
	MatchType     scantype.MatchType
	Level         region.Level
	Filter        region.Filter
	ReverseEndian bool
	Step          int
	BlockSize     int
}

// Session holds all state for one target process across a sequence of
// scan passes. A Session is safe for concurrent use: every exported
// method that reads or changes match state, statistics or the reader
// takes the same mutex (Pid and Regions use only the pid, which never
// changes, and take no lock), the way the teacher's Server guards
// shared debugger state across RPC calls from multiple clients
// (spec.md §4.11's single-writer contract is implemented by holding
// the lock across the entire pass, not just the merge step).
type Session struct {
	mu sync.Mutex

	pid     int
	mem     *procmem.Reader
	matches *matchset.MatchSet
	stats   scanengine.Stats
	last    Options
}

// New attaches to pid and returns a Session with no matches recorded.
func New(pid int, ptraceAttach bool) (*Session, error) {
	mem, err := procmem.Attach(pid, ptraceAttach)
	if err != nil {
		return nil, err
	}
	return &Session{
		pid:     pid,
		mem:     mem,
		matches: matchset.New(),
	}, nil
}

// SeedMatches replaces the session's recorded matches, letting a
// caller resume a session across process invocations (the CLI
// persists a MatchSet to disk between non-interactive "scan" and
// "refine" commands, since each is a separate process).
func (s *Session) SeedMatches(ms *matchset.MatchSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = ms
}

// Close detaches from the target process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem.Detach()
}

// Pid returns the target process ID.
func (s *Session) Pid() int { return s.pid }

// Regions returns the process's current memory regions under opts'
// Level and Filter, without running a scan. Useful for a front end
// that wants to show the user what a scan would cover first.
func (s *Session) Regions(opts Options) ([]region.Region, error) {
	return region.Enumerate(s.pid, opts.Level, opts.Filter)
}

// PerformScan runs a scan pass: a first scan if the session has no
// recorded matches yet, otherwise a refine scan over the existing
// matches. uv may be nil for predicates that need no operand (ANY,
// CHANGED, NOT_CHANGED, INCREASED, DECREASED).
func (s *Session) PerformScan(ctx context.Context, opts Options, uv *scanval.UserValue) (scanengine.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uv != nil && !uv.Valid() {
		return scanengine.Stats{}, scanerr.New(scanerr.InvalidArguments, "mask length does not match pattern length")
	}

	r, ok := routine.Dispatch(opts.DataType, opts.MatchType, opts.ReverseEndian)
	if !ok {
		return scanengine.Stats{}, scanerr.New(scanerr.RoutineUnavailable, opts.DataType.String()+" / "+opts.MatchType.String())
	}
	if opts.MatchType.NeedsOldValue() && s.matches.Count() == 0 {
		return scanengine.Stats{}, scanerr.New(scanerr.InvalidArguments, "match type requires a previous scan")
	}

	regions, err := region.Enumerate(s.pid, opts.Level, opts.Filter)
	if err != nil {
		return scanengine.Stats{}, err
	}

	var (
		next  *matchset.MatchSet
		stats scanengine.Stats
	)
	if s.matches.Count() == 0 {
		next, stats, err = scanengine.FirstScan(ctx, s.mem, regions, opts.DataType, uv, r, opts.Step, opts.BlockSize)
	} else {
		next, stats, err = scanengine.RefineScan(ctx, s.mem, regions, s.matches, opts.DataType, uv, r)
	}
	if err != nil {
		return scanengine.Stats{}, err
	}

	s.matches = next
	s.stats = stats
	s.last = opts
	return stats, nil
}

// Matches returns the swaths recorded by the most recent scan pass.
func (s *Session) Matches() []matchset.Swath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches.Swaths()
}

// MatchCount returns the number of matched bytes currently recorded.
func (s *Session) MatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches.Count()
}

// HasMatches reports whether any match is currently recorded.
func (s *Session) HasMatches() bool {
	return s.MatchCount() > 0
}

// ClearMatches discards all recorded matches, so the next PerformScan
// call runs a first scan instead of a refine scan.
func (s *Session) ClearMatches() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches.Reset()
}

// LastStats returns the Stats from the most recent completed pass.
func (s *Session) LastStats() scanengine.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LastOptions returns the Options used for the most recent pass.
func (s *Session) LastOptions() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
