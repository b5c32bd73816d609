// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procmem

import "unsafe"

// addressOf returns the virtual address of b as seen by this process,
// which is also how /proc/self/mem addresses it.
func addressOf(b *byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(b)))
}
