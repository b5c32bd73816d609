// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"strings"
	"testing"
)

const sampleMaps = `00400000-00452000 r-xp 00000000 08:02 173521      /bin/cat
00651000-00652000 rw-p 00051000 08:02 173521      /bin/cat
00652000-00655000 rw-p 00000000 00:00 0
01234000-01255000 rw-p 00000000 00:00 0           [heap]
7f1a2b3c4000-7f1a2b3c6000 rw-p 00000000 00:00 0
7fff12345000-7fff12366000 rw-p 00000000 00:00 0   [stack]
7fff12399000-7fff1239a000 r-xp 00000000 00:00 0   [vdso]
`

func TestParseMapsAllReadable(t *testing.T) {
	regions, err := parseMaps(strings.NewReader(sampleMaps), AllReadable, nil)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	if len(regions) != 7 {
		t.Fatalf("got %d regions, want 7", len(regions))
	}
	for i := 1; i < len(regions); i++ {
		if regions[i].Start < regions[i-1].Start {
			t.Errorf("regions not sorted by start address at index %d", i)
		}
	}
}

func TestParseMapsHeapStackOnly(t *testing.T) {
	regions, err := parseMaps(strings.NewReader(sampleMaps), HeapStackOnly, nil)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2 (heap + stack)", len(regions))
	}
	for _, r := range regions {
		if r.Backing != Heap && r.Backing != Stack {
			t.Errorf("region backing = %v, want Heap or Stack", r.Backing)
		}
	}
}

func TestParseMapsWritableOnly(t *testing.T) {
	regions, err := parseMaps(strings.NewReader(sampleMaps), Writable, nil)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	for _, r := range regions {
		if r.Perm&Write == 0 {
			t.Errorf("region %v not writable but admitted under Writable level", r)
		}
	}
	for _, r := range regions {
		if r.Pathname == "/bin/cat" && r.Offset == 0 {
			t.Errorf("read-only text segment should not be admitted under Writable level: %v", r)
		}
	}
}

func TestExcludeSharedLibraries(t *testing.T) {
	regions, err := parseMaps(strings.NewReader(sampleMaps), AllReadable, ExcludeSharedLibraries)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	for _, r := range regions {
		if r.Backing == MappedFile {
			t.Errorf("ExcludeSharedLibraries let a mapped-file region through: %v", r)
		}
	}
}

func TestClassifyBacking(t *testing.T) {
	cases := []struct {
		path string
		want Backing
	}{
		{"", Anonymous},
		{"[heap]", Heap},
		{"[stack]", Stack},
		{"[stack:1234]", Stack},
		{"[vdso]", KernelSpecial},
		{"/lib/x86_64-linux-gnu/libc.so.6", MappedFile},
	}
	for _, c := range cases {
		if got := classify(c.path); got != c.want {
			t.Errorf("classify(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestPermString(t *testing.T) {
	p := Read | Write | Private
	if got := p.String(); got != "rw-p" {
		t.Errorf("Perm.String() = %q, want %q", got, "rw-p")
	}
}

func TestRegionSize(t *testing.T) {
	r := Region{Start: 0x1000, End: 0x2000}
	if got := r.Size(); got != 0x1000 {
		t.Errorf("Size() = %d, want %d", got, 0x1000)
	}
}

func TestParseMapsMalformedLineSkipped(t *testing.T) {
	input := "not a valid line\n00400000-00401000 r-xp 00000000 00:00 0\n"
	regions, err := parseMaps(strings.NewReader(input), AllReadable, nil)
	if err != nil {
		t.Fatalf("parseMaps: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1 (malformed line skipped)", len(regions))
	}
}
