// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/future-re/NewScanmem-sub002/matchset"
)

// A one-shot CLI invocation can't hold a scanner.Session open between
// "scan" and "refine" calls, so narrowing state is persisted to a
// per-pid file between invocations. The interactive shell instead
// keeps one Session alive for its whole run and never touches this.
func statePath(pid int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("memscan-%d.state", pid))
}

func saveState(pid int, ms *matchset.MatchSet) error {
	f, err := os.Create(statePath(pid))
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(ms.Swaths())
}

func loadState(pid int) (*matchset.MatchSet, error) {
	f, err := os.Open(statePath(pid))
	if err != nil {
		if os.IsNotExist(err) {
			return matchset.New(), nil
		}
		return nil, err
	}
	defer f.Close()

	var swaths []matchset.Swath
	if err := gob.NewDecoder(f).Decode(&swaths); err != nil {
		return nil, err
	}
	ms := matchset.New()
	for _, s := range swaths {
		ms.AddSwath(s)
	}
	return ms, nil
}

func clearState(pid int) error {
	err := os.Remove(statePath(pid))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
