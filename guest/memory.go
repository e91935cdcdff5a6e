//go:build wasip1

package guest

import (
	"fmt"
	"sync"
	"unsafe"
)

// MaxTotalAllocations caps the bytes pinned for host transfers at once.
const MaxTotalAllocations = 64 * 1024 * 1024

// pinned keeps buffers handed to the host reachable until released, so the
// Go GC cannot reclaim memory the host is still reading or writing.
var pinned = struct {
	sync.Mutex
	bufs  map[uint32][]byte
	total int
}{
	bufs: make(map[uint32][]byte),
}

// allocate reserves size bytes for the host to write into.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	pinned.Lock()
	defer pinned.Unlock()

	if pinned.total+int(size) > MaxTotalAllocations {
		panic(fmt.Sprintf("guest: allocation limit exceeded (requested %d bytes, pinned %d, limit %d)",
			size, pinned.total, MaxTotalAllocations))
	}

	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	pinned.bufs[ptr] = buf
	pinned.total += int(size)
	return ptr
}

// deallocate releases a buffer from allocate. Unknown pointers are ignored.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	pinned.Lock()
	defer pinned.Unlock()

	buf, ok := pinned.bufs[ptr]
	if !ok {
		return
	}
	delete(pinned.bufs, ptr)
	pinned.total -= len(buf)
}

// ReleaseAll unpins every buffer, e.g. after recovering from a panic.
func ReleaseAll() {
	pinned.Lock()
	defer pinned.Unlock()
	clear(pinned.bufs)
	pinned.total = 0
}

// toHost copies data into a pinned buffer and returns its packed ptr/len.
func toHost(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	size := uint32(len(data)) //nolint:gosec // G115: guest memory is 32-bit
	ptr := allocate(size)
	//nolint:gosec // G103: WASM linear memory access
	copy(unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), size), data)
	return PackPtrLen(ptr, size)
}

// fromHost copies the bytes at packed and releases their buffer.
func fromHost(packed uint64) []byte {
	ptr, length := UnpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil
	}
	//nolint:gosec // G103: WASM linear memory access
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	data := make([]byte, length)
	copy(data, src)
	deallocate(ptr, length)
	return data
}

// release unpins a buffer created by toHost once the host has read it.
func release(packed uint64) {
	if ptr, length := UnpackPtrLen(packed); ptr != 0 && length > 0 {
		deallocate(ptr, length)
	}
}

// Serve adapts a handler to an exported callback. The request is read from
// packed and the handler's answer is returned as a packed ptr/len the host
// reads after the export returns.
func Serve(packed uint64, handler func(req []byte) []byte) uint64 {
	return toHost(handler(fromHost(packed)))
}
