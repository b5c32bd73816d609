// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region enumerates a target process's virtual memory mappings
// by parsing /proc/[pid]/maps (spec.md §4.6, §6). The line grammar and
// per-mapping field layout mirror the other_examples smaps parser
// (tsaarni-smaps-container-exporter's regexp-based header line matcher),
// adapted from the annotated /proc/[pid]/smaps format to the simpler
// /proc/[pid]/maps format; the resulting Region/Perm shape mirrors
// core.Mapping/core.Perm in the teacher's core dump reader, generalized
// from a static core file to a live /proc read.
package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/future-re/NewScanmem-sub002/scanerr"
)

// Address is a virtual address in the target process's address space.
// Stored as a plain integer, not a pointer, since it names memory in a
// different address space than this process's own (spec.md §9).
type Address uint64

// Add returns a + offset.
func (a Address) Add(offset int64) Address { return Address(int64(a) + offset) }

// Sub returns a - b as a byte count.
func (a Address) Sub(b Address) int64 { return int64(a) - int64(b) }

// Perm is the permission bitset for a Region (spec.md §3).
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
	Private
)

func (p Perm) String() string {
	var b strings.Builder
	for _, f := range []struct {
		bit  Perm
		char byte
	}{{Read, 'r'}, {Write, 'w'}, {Exec, 'x'}} {
		if p&f.bit != 0 {
			b.WriteByte(f.char)
		} else {
			b.WriteByte('-')
		}
	}
	if p&Private != 0 {
		b.WriteByte('p')
	} else {
		b.WriteByte('s')
	}
	return b.String()
}

// Backing classifies what backs a Region (spec.md §3).
type Backing int

const (
	Anonymous Backing = iota
	Heap
	Stack
	MappedFile
	KernelSpecial
	Other
)

func (b Backing) String() string {
	switch b {
	case Anonymous:
		return "anonymous"
	case Heap:
		return "heap"
	case Stack:
		return "stack"
	case MappedFile:
		return "mapped-file"
	case KernelSpecial:
		return "kernel-special"
	default:
		return "other"
	}
}

// Region is a half-open interval [Start, End) of the target's address
// space sharing one set of permissions and one backing class.
type Region struct {
	Start, End Address
	Perm       Perm
	Backing    Backing
	Offset     uint64
	Device     string
	Inode      uint64
	Pathname   string
}

// Size returns the number of bytes the region covers.
func (r Region) Size() int64 { return r.End.Sub(r.Start) }

// Level selects which backing classes Enumerate includes by default
// (spec.md §6).
type Level int

const (
	HeapStackOnly Level = iota
	Writable
	AllReadable
)

// Filter is a predicate over a candidate Region. A nil Filter admits
// every region that the Level already allows.
type Filter func(Region) bool

// mapsLine matches one /proc/[pid]/maps record:
//
//	start-end perms offset dev:dev inode pathname
//	7f1a2b3c4000-7f1a2b3c6000 rw-p 00000000 00:00 0            [heap]
var mapsLine = regexp.MustCompile(
	`^([0-9a-fA-F]+)-([0-9a-fA-F]+)\s+([rwxps-]{4})\s+([0-9a-fA-F]+)\s+([0-9a-fA-F]+:[0-9a-fA-F]+)\s+(\d+)\s*(.*)$`,
)

// Enumerate reads /proc/[pid]/maps for pid and returns the regions
// allowed by level and filter, sorted by start address with no overlaps.
func Enumerate(pid int, level Level, filter Filter) ([]Region, error) {
	path := fmt.Sprintf("/proc/%d/maps", pid)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scanerr.Wrap(scanerr.NoSuchProcess, fmt.Sprintf("pid %d", pid), err)
		}
		if os.IsPermission(err) {
			return nil, scanerr.Wrap(scanerr.PermissionDenied, fmt.Sprintf("pid %d", pid), err)
		}
		return nil, scanerr.Wrap(scanerr.MapParseError, path, err)
	}
	defer f.Close()
	return parseMaps(f, level, filter)
}

func parseMaps(r io.Reader, level Level, filter Filter) ([]Region, error) {
	var regions []Region
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		m := mapsLine.FindStringSubmatch(line)
		if m == nil {
			// A single malformed line doesn't invalidate the whole map;
			// it's skipped the way a missing mapped file is tolerated
			// in internal/core/process.go's readNTFile.
			continue
		}
		reg, err := parseRegion(m)
		if err != nil {
			continue
		}
		if !admitted(reg, level) {
			continue
		}
		if filter != nil && !filter(reg) {
			continue
		}
		regions = append(regions, reg)
	}
	if err := scanner.Err(); err != nil {
		return nil, scanerr.Wrap(scanerr.MapParseError, "reading maps", err)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	return regions, nil
}

func parseRegion(m []string) (Region, error) {
	start, err := strconv.ParseUint(m[1], 16, 64)
	if err != nil {
		return Region{}, err
	}
	end, err := strconv.ParseUint(m[2], 16, 64)
	if err != nil {
		return Region{}, err
	}
	permStr := m[3]
	offset, err := strconv.ParseUint(m[4], 16, 64)
	if err != nil {
		return Region{}, err
	}
	device := m[5]
	inode, err := strconv.ParseUint(m[6], 10, 64)
	if err != nil {
		return Region{}, err
	}
	pathname := strings.TrimSpace(m[7])

	var perm Perm
	if len(permStr) == 4 {
		if permStr[0] == 'r' {
			perm |= Read
		}
		if permStr[1] == 'w' {
			perm |= Write
		}
		if permStr[2] == 'x' {
			perm |= Exec
		}
		if permStr[3] == 'p' {
			perm |= Private
		}
	}

	return Region{
		Start:    Address(start),
		End:      Address(end),
		Perm:     perm,
		Backing:  classify(pathname),
		Offset:   offset,
		Device:   device,
		Inode:    inode,
		Pathname: pathname,
	}, nil
}

func classify(pathname string) Backing {
	switch {
	case pathname == "":
		return Anonymous
	case pathname == "[heap]":
		return Heap
	case pathname == "[stack]" || strings.HasPrefix(pathname, "[stack:"):
		return Stack
	case strings.HasPrefix(pathname, "["):
		return KernelSpecial
	default:
		return MappedFile
	}
}

func admitted(r Region, level Level) bool {
	if r.Perm&Read == 0 {
		return false
	}
	switch level {
	case HeapStackOnly:
		return r.Backing == Heap || r.Backing == Stack
	case Writable:
		return r.Perm&Write != 0
	case AllReadable:
		return true
	default:
		return false
	}
}

// ExcludeSharedLibraries is a ready-made Filter that drops mapped-file
// regions, letting callers combine AllReadable with "but not shared
// objects" the way scanmem's UI traditionally offers.
func ExcludeSharedLibraries(r Region) bool {
	return r.Backing != MappedFile
}
