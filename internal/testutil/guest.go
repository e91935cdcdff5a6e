package testutil

import (
	"sort"
)

// Exports of the module built by GuestModule.
const (
	// GuestLegendre forwards its packed argument to the host's gauss_legendre.
	GuestLegendre = "call_legendre"
	// GuestLog forwards its packed argument to the host's log_message.
	GuestLog = "log"
	// GuestEcho returns its packed argument unchanged.
	GuestEcho = "echo"
	// GuestTrap executes unreachable.
	GuestTrap = "trap"
	// GuestLiveBytes returns, as an i32, the bytes handed out by allocate
	// or pinned by fixed responses and not yet passed to deallocate.
	GuestLiveBytes = "live_bytes"
)

// guestHeapBase is where the guest's bump allocator starts. Fixed
// responses are laid out below it.
const guestHeapBase = 4096

const (
	valI32 = 0x7f
	valI64 = 0x7e

	opUnreachable = 0x00
	opEnd         = 0x0b
	opCall        = 0x10
	opLocalGet    = 0x20
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Const    = 0x41
	opI64Const    = 0x42
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	opI32WrapI64  = 0xa7
)

// Globals of the module built by GuestModule.
const (
	globalHeap = iota
	globalLive
)

// GuestModule assembles a minimal WASM guest speaking the packed i64
// ptr/len ABI. It imports gauss_legendre and log_message from hostModule,
// exports memory, a bump allocator named "allocate" with its "deallocate",
// the GuestLegendre, GuestLog, GuestEcho, GuestTrap and GuestLiveBytes
// functions, and one export per entry of responses that frees its argument
// and returns the fixed bytes, pinned until the host deallocates them.
func GuestModule(hostModule string, responses map[string]string) []byte {
	const (
		typeI64I64 = iota
		typeI32I32
		typeI64Void
		typeI32I32Void
		typeVoidI32
	)
	types := vec(
		funcType([]byte{valI64}, []byte{valI64}),
		funcType([]byte{valI32}, []byte{valI32}),
		funcType([]byte{valI64}, nil),
		funcType([]byte{valI32, valI32}, nil),
		funcType(nil, []byte{valI32}),
	)

	imports := vec(
		concat(name(hostModule), name("gauss_legendre"), []byte{0x00}, uleb(typeI64I64)),
		concat(name(hostModule), name("log_message"), []byte{0x00}, uleb(typeI64Void)),
	)
	const importedFuncs = 2

	type export struct {
		name    string
		typeIdx int
		body    []byte
	}
	funcs := []export{
		{name: "allocate", typeIdx: typeI32I32, body: []byte{
			opGlobalGet, globalLive, opLocalGet, 0, opI32Add, opGlobalSet, globalLive,
			opGlobalGet, globalHeap,
			opGlobalGet, globalHeap, opLocalGet, 0, opI32Add,
			opGlobalSet, globalHeap,
		}},
		{name: "deallocate", typeIdx: typeI32I32Void, body: []byte{
			opGlobalGet, globalLive, opLocalGet, 1, opI32Sub, opGlobalSet, globalLive,
		}},
		{name: GuestLiveBytes, typeIdx: typeVoidI32, body: []byte{opGlobalGet, globalLive}},
		{name: GuestLegendre, typeIdx: typeI64I64, body: []byte{opLocalGet, 0, opCall, 0}},
		{name: GuestLog, typeIdx: typeI64Void, body: []byte{opLocalGet, 0, opCall, 1}},
		{name: GuestEcho, typeIdx: typeI64I64, body: []byte{opLocalGet, 0}},
		{name: GuestTrap, typeIdx: typeI64I64, body: []byte{opUnreachable}},
	}

	names := make([]string, 0, len(responses))
	for n := range responses {
		names = append(names, n)
	}
	sort.Strings(names)

	var segments [][]byte
	offset := 16
	for _, n := range names {
		data := []byte(responses[n])
		packed := int64(offset)<<32 | int64(len(data))
		body := concat(
			[]byte{opGlobalGet, globalLive, opLocalGet, 0, opI32WrapI64, opI32Sub, opI32Const},
			sleb(int64(len(data))),
			[]byte{opI32Add, opGlobalSet, globalLive, opI64Const},
			sleb(packed),
		)
		funcs = append(funcs, export{name: n, typeIdx: typeI64I64, body: body})
		segments = append(segments, concat(
			[]byte{0x00, opI32Const}, sleb(int64(offset)), []byte{opEnd},
			uleb(uint64(len(data))), data,
		))
		offset += len(data)
	}
	if offset > guestHeapBase {
		panic("testutil: fixed guest responses exceed the reserved area")
	}

	var funcTypes, exports, bodies [][]byte
	exports = append(exports, concat(name("memory"), []byte{0x02}, uleb(0)))
	for i, f := range funcs {
		funcTypes = append(funcTypes, uleb(uint64(f.typeIdx)))
		exports = append(exports, concat(name(f.name), []byte{0x00}, uleb(uint64(importedFuncs+i))))
		code := concat([]byte{0x00}, f.body, []byte{opEnd})
		bodies = append(bodies, concat(uleb(uint64(len(code))), code))
	}

	globals := vec(
		concat([]byte{valI32, 0x01, opI32Const}, sleb(guestHeapBase), []byte{opEnd}),
		concat([]byte{valI32, 0x01, opI32Const}, sleb(0), []byte{opEnd}),
	)
	memory := vec([]byte{0x00, 0x01})

	return concat(
		[]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		section(1, types),
		section(2, imports),
		section(3, vec(funcTypes...)),
		section(5, memory),
		section(6, globals),
		section(7, vec(exports...)),
		section(10, vec(bodies...)),
		section(11, vec(segments...)),
	)
}

func funcType(params, results []byte) []byte {
	return concat([]byte{0x60}, uleb(uint64(len(params))), params, uleb(uint64(len(results))), results)
}

func section(id byte, content []byte) []byte {
	return concat([]byte{id}, uleb(uint64(len(content))), content)
}

func vec(items ...[]byte) []byte {
	return concat(append([][]byte{uleb(uint64(len(items)))}, items...)...)
}

func name(s string) []byte {
	return concat(uleb(uint64(len(s))), []byte(s))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}
