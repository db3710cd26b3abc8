package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MemoryMap represents a memory mapped register block
type MemoryMap struct {
	region []byte
	mapped bool
}

// Open maps size bytes at offset of a memory device such as /dev/mem or
// /dev/gpiomem.
func Open(path string, offset int64, size int) (*MemoryMap, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	region, err := unix.Mmap(
		int(f.Fd()),
		offset,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}

	return &MemoryMap{
		region: region,
		mapped: true,
	}, nil
}

// FromWords wraps an ordinary word buffer as a register block, for
// register maps backed by memory in tests and simulations.
func FromWords(words []uint32) *MemoryMap {
	if len(words) == 0 {
		return &MemoryMap{}
	}
	return &MemoryMap{region: unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*4)}
}

// Close unmaps the memory region. Any later access panics with an index
// out of range instead of touching unmapped memory.
func (m *MemoryMap) Close() error {
	region := m.region
	m.region = nil
	if !m.mapped {
		return nil
	}
	m.mapped = false
	return unix.Munmap(region)
}

// Len is the size of the mapped region in bytes.
func (m *MemoryMap) Len() int { return len(m.region) }

// Read32 reads a 32-bit register
func (m *MemoryMap) Read32(offset uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&m.region[offset])))
}

// Write32 writes a 32-bit register in a single store
func (m *MemoryMap) Write32(offset uintptr, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&m.region[offset])), value)
}
