// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command memscan is a command-line and interactive memory scanner
// for a target Linux process, in the spirit of scanmem. Run "memscan
// help" for the command list.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
