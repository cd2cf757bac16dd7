// Package memory allocates backing stores for byte buffers.
package memory

import "fmt"

// Region is a fixed-size block of memory backing a buffer.
type Region struct {
	Bytes  []byte
	mapped bool
}

// Mapped reports whether the region lives outside the Go heap.
func (r *Region) Mapped() bool {
	return r.mapped
}

// Allocate returns a region of exactly size bytes. When mapped is set the
// region is an anonymous private mapping; if the platform refuses the mapping
// the region falls back to the Go heap.
func Allocate(size int, mapped bool) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memory: invalid region size %d", size)
	}
	if mapped {
		if b, err := mapAnonymous(size); err == nil {
			return &Region{Bytes: b, mapped: true}, nil
		}
	}
	return &Region{Bytes: make([]byte, size)}, nil
}

// Release returns mapped memory to the OS. The region must not be used
// afterwards. Heap regions are left to the garbage collector.
func (r *Region) Release() error {
	if r == nil || r.Bytes == nil {
		return nil
	}
	b, mapped := r.Bytes, r.mapped
	r.Bytes, r.mapped = nil, false
	if !mapped {
		return nil
	}
	if err := unmap(b); err != nil {
		return fmt.Errorf("memory: unmap region: %w", err)
	}
	return nil
}
