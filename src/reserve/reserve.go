// Package reserve grounds the buddy allocator's two external address-space
// collaborators — obtaining an initial region pointer, and reserving all
// addresses below a given pointer — in golang.org/x/sys/unix. It never
// commits more physical memory than the allocator has actually touched: the
// whole region is reserved with PROT_NONE up front, and Mprotect widens the
// readable/writable range only as the high-water mark advances.
package reserve

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Reservation is a single mmap'd address range. It does not record how
// much of the range has been made readable/writable; callers track that.
type Reservation struct {
	base uintptr
	mem  []byte
}

// Reserve reserves size bytes of contiguous virtual address space. None
// of it is committed (readable/writable) yet; callers extend that with
// CommitUpTo as they touch more of the region.
func Reserve(size uintptr) (*Reservation, error) {
	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("reserve: mmap %d bytes: %w", size, err)
	}
	return &Reservation{
		base: uintptr(unsafe.Pointer(&mem[0])),
		mem:  mem,
	}, nil
}

// Base returns the immutable start address of the reserved region.
func (r *Reservation) Base() uintptr {
	return r.base
}

// CommitUpTo makes every address in [Base(), p) readable and writable.
// It is a no-op if p is already covered. p must be non-decreasing across
// calls and must not exceed Base()+len(region); callers (the buddy
// allocator's backing-memory reserver) uphold both.
func (r *Reservation) CommitUpTo(p uintptr) bool {
	length := p - r.base
	if length > uintptr(len(r.mem)) {
		return false
	}
	if err := unix.Mprotect(r.mem[:length], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		fmt.Fprintln(os.Stderr, "reserve: failed to extend committed region:", err)
		return false
	}
	return true
}

// Close unmaps the reserved region. The Reservation must not be used
// afterward.
func (r *Reservation) Close() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	return unix.Munmap(mem)
}
