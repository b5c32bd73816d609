// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procmem

import (
	"os"
	"testing"
)

// TestReadAtOwnMemory reads a known value out of this test process's own
// address space via /proc/self/mem, without ptrace-attaching (a process
// can always read its own memory this way; no stop is required).
func TestReadAtOwnMemory(t *testing.T) {
	marker := [8]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x01, 0x02, 0x03, 0x04}
	addr := addressOf(&marker[0])

	r, err := Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Detach()

	buf := make([]byte, len(marker))
	n, err := r.ReadAt(addr, buf)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != len(marker) {
		t.Fatalf("ReadAt returned %d bytes, want %d", n, len(marker))
	}
	for i := range marker {
		if buf[i] != marker[i] {
			t.Errorf("byte %d = %#x, want %#x", i, buf[i], marker[i])
		}
	}
}

func TestAttachNoSuchProcess(t *testing.T) {
	const bogusPid = 1 << 30
	if _, err := Attach(bogusPid, false); err == nil {
		t.Error("Attach(bogus pid) succeeded, want an error")
	}
}

// TestOpenReaderIndependentHandle verifies a reader opened via
// OpenReader serves reads with its own file descriptor, independent of
// the Reader it was derived from (spec.md §4.7/§4.10: each concurrent
// scan worker gets a private handle, not a shared one).
func TestOpenReaderIndependentHandle(t *testing.T) {
	marker := [8]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}
	addr := addressOf(&marker[0])

	r, err := Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Detach()

	worker, err := r.OpenReader()
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer worker.Detach()

	if worker.Pid() != r.Pid() {
		t.Errorf("worker.Pid() = %d, want %d", worker.Pid(), r.Pid())
	}

	buf := make([]byte, len(marker))
	n, err := worker.ReadAt(addr, buf)
	if err != nil {
		t.Fatalf("worker.ReadAt: %v", err)
	}
	if n != len(marker) || string(buf) != string(marker[:]) {
		t.Errorf("worker.ReadAt = %v, want %v", buf, marker)
	}
}

func TestPid(t *testing.T) {
	r, err := Attach(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer r.Detach()
	if r.Pid() != os.Getpid() {
		t.Errorf("Pid() = %d, want %d", r.Pid(), os.Getpid())
	}
}
