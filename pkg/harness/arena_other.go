//go:build !linux

package harness

import "fmt"

// PageSize is the assumed page size used for arena sizing
const PageSize = 4096

// Arena is a scratch working buffer. On non-Linux hosts it is a plain heap
// allocation; alignment only matters when the buffer is handed to DMA.
type Arena struct {
	data []byte
}

// NewArena allocates an arena of at least size bytes
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena size must be positive")
	}
	return &Arena{data: make([]byte, size)}, nil
}

// Bytes returns the arena's backing slice
func (a *Arena) Bytes() []byte {
	return a.data
}

// Release drops the arena's memory
func (a *Arena) Release() error {
	a.data = nil
	return nil
}
