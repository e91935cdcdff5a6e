package bridge

import (
	lua "github.com/yuin/gopher-lua"
)

// pinTableKey is the registry field holding the per-state pin table.
const pinTableKey = "numbridge.pins"

// Pin keeps a Lua value reachable from the registry so that it outlives the
// Lua frame that produced it. Pins are reference counted per value.
type Pin struct {
	L     *lua.LState
	value lua.LValue
	held  bool
}

// Acquire pins v in L's registry and returns the ownership token. Pinning
// nil is a no-op that returns an empty, already released token.
func Acquire(L *lua.LState, v lua.LValue) *Pin {
	if v == nil || v == lua.LNil {
		return &Pin{L: L, value: lua.LNil}
	}
	pins := pinTable(L)
	pins.RawSet(v, lua.LNumber(PinCount(L, v)+1))
	return &Pin{L: L, value: v, held: true}
}

// Value returns the pinned value.
func (p *Pin) Value() lua.LValue {
	return p.value
}

// Release drops this token's reference. The registry slot is removed when
// the count reaches zero. Release is idempotent.
func (p *Pin) Release() {
	if p == nil || !p.held {
		return
	}
	p.held = false

	pins := pinTable(p.L)
	n := PinCount(p.L, p.value) - 1
	if n <= 0 {
		pins.RawSet(p.value, lua.LNil)
		return
	}
	pins.RawSet(p.value, lua.LNumber(n))
}

// PinCount returns how many live tokens pin v.
func PinCount(L *lua.LState, v lua.LValue) int {
	if v == nil || v == lua.LNil {
		return 0
	}
	n, ok := pinTable(L).RawGet(v).(lua.LNumber)
	if !ok {
		return 0
	}
	return int(n)
}

func pinTable(L *lua.LState) *lua.LTable {
	reg := L.Get(lua.RegistryIndex).(*lua.LTable)
	if tb, ok := reg.RawGetString(pinTableKey).(*lua.LTable); ok {
		return tb
	}
	tb := L.NewTable()
	reg.RawSetString(pinTableKey, tb)
	return tb
}
