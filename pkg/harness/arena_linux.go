//go:build linux

package harness

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageSize is the system page size (typically 4096 bytes)
const PageSize = 4096

// Arena is a page-aligned scratch working buffer. Test inputs are staged
// into it and outputs computed into it, mirroring how the target stages
// tensors in a reserved arena region.
type Arena struct {
	data []byte
}

// NewArena allocates a page-aligned arena of at least size bytes
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size must be positive")
	}
	alignedSize := (size + PageSize - 1) / PageSize * PageSize
	data, err := unix.Mmap(-1, 0, alignedSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return &Arena{data: data[:size]}, nil
}

// Bytes returns the arena's backing slice
func (a *Arena) Bytes() []byte {
	return a.data
}

// Release returns the arena's memory to the system
func (a *Arena) Release() error {
	if a.data == nil {
		return nil
	}
	full := a.data[:cap(a.data)]
	a.data = nil
	if err := unix.Munmap(full); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}
