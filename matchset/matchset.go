// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package matchset stores scan results as swaths of contiguous matched
// bytes (spec.md §4.8, §9), each byte carrying the old value it was
// read as and the width flags that matched it there. The swath shape
// mirrors how scanmem itself avoids one allocation per match: runs of
// matched bytes at adjacent addresses share a single backing slice,
// the same locality argument core.Mapping's page table exploits for
// address lookups (core/mapping.go), generalized here from "which
// mapping holds this address" to "which swath holds this match".
package matchset

import (
	"sort"

	"github.com/future-re/NewScanmem-sub002/scantype"
)

// ByteRecord is one byte of a swath: the value it held when recorded,
// the set of width-interpretations that matched starting at it (Empty
// for a dead neighbor byte), and, for a live byte, the number of bytes
// its match covers (spec.md §3's swath invariant: a live byte's match
// may extend across interior dead neighbors).
type ByteRecord struct {
	OldByte byte
	Flags   scantype.WidthFlags
	Width   int
}

// Live reports whether the byte is a live match (spec.md glossary:
// "Live byte — a byte in a swath whose match-flag set is non-empty").
func (r ByteRecord) Live() bool { return r.Flags != scantype.Empty }

// Swath is a contiguous run of matched bytes starting at FirstAddress.
type Swath struct {
	FirstAddress uint64
	Bytes        []ByteRecord
}

// End returns the address one past the swath's last byte.
func (s Swath) End() uint64 { return s.FirstAddress + uint64(len(s.Bytes)) }

// MatchSet is an address-ordered, non-overlapping collection of swaths.
type MatchSet struct {
	swaths []Swath
}

// New returns an empty MatchSet.
func New() *MatchSet { return &MatchSet{} }

// AddSwath appends a swath. Callers append in increasing address order
// during a scan pass; Sort repairs order afterward if that invariant
// is ever violated (e.g. when merging results from concurrent workers).
func (m *MatchSet) AddSwath(s Swath) {
	if len(s.Bytes) == 0 {
		return
	}
	m.swaths = append(m.swaths, s)
}

// Sort orders swaths by starting address. Required after a
// sharded/concurrent scan appends results out of order.
func (m *MatchSet) Sort() {
	sort.Slice(m.swaths, func(i, j int) bool { return m.swaths[i].FirstAddress < m.swaths[j].FirstAddress })
}

// Swaths returns the underlying swath slice, in current order.
func (m *MatchSet) Swaths() []Swath { return m.swaths }

// Count returns the number of live bytes (flags != Empty) across all
// swaths (spec.md §4.8, §8 property 3) — not the number of swaths, and
// not the number of stored bytes, since a swath's dead neighbor bytes
// carry old-value geometry but are not matches themselves.
func (m *MatchSet) Count() int {
	n := 0
	for _, s := range m.swaths {
		for _, rec := range s.Bytes {
			if rec.Live() {
				n++
			}
		}
	}
	return n
}

// Reset discards all swaths.
func (m *MatchSet) Reset() { m.swaths = nil }

// Each calls fn once per stored byte (live matches and dead neighbors
// alike), in swath order, stopping early if fn returns false.
func (m *MatchSet) Each(fn func(addr uint64, rec ByteRecord) bool) {
	for _, s := range m.swaths {
		for i, rec := range s.Bytes {
			if !fn(s.FirstAddress+uint64(i), rec) {
				return
			}
		}
	}
}

// At returns the record for addr and whether it was found.
func (m *MatchSet) At(addr uint64) (ByteRecord, bool) {
	i := sort.Search(len(m.swaths), func(i int) bool { return m.swaths[i].End() > addr })
	if i == len(m.swaths) {
		return ByteRecord{}, false
	}
	s := m.swaths[i]
	if addr < s.FirstAddress {
		return ByteRecord{}, false
	}
	return s.Bytes[addr-s.FirstAddress], true
}

// Merge appends other's swaths into m and re-sorts. Used to combine
// per-region results produced by concurrent scan workers.
func (m *MatchSet) Merge(other *MatchSet) {
	m.swaths = append(m.swaths, other.swaths...)
	m.Sort()
}

// Builder accumulates consecutive matched bytes into a single Swath,
// flushing it to a MatchSet once a gap is seen. This is how a scan
// pass over one region's byte stream produces swaths without knowing
// in advance how many matches it will find.
type Builder struct {
	dest    *MatchSet
	current Swath
	open    bool
}

// NewBuilder returns a Builder appending swaths to dest.
func NewBuilder(dest *MatchSet) *Builder {
	return &Builder{dest: dest}
}

// Add records a matched byte at addr. Consecutive addresses extend the
// current swath; a gap flushes it and starts a new one. An addr the
// current swath already covers (a match starting inside an earlier
// match's dead neighbors) keeps one record per address: a live rec
// replaces the stored one, a dead rec leaves it as it is.
func (b *Builder) Add(addr uint64, rec ByteRecord) {
	if b.open && addr >= b.current.FirstAddress && addr < b.current.End() {
		if rec.Live() {
			b.current.Bytes[addr-b.current.FirstAddress] = rec
		}
		return
	}
	if b.open && addr == b.current.End() {
		b.current.Bytes = append(b.current.Bytes, rec)
		return
	}
	b.flush()
	b.current = Swath{FirstAddress: addr, Bytes: []ByteRecord{rec}}
	b.open = true
}

// Flush closes out any open swath. Must be called once after the last
// Add for a region.
func (b *Builder) Flush() { b.flush() }

func (b *Builder) flush() {
	if b.open {
		b.dest.AddSwath(b.current)
		b.open = false
		b.current = Swath{}
	}
}
