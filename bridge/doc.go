// Package bridge connects the embedded Lua interpreter to the numerical
// library. It converts between Lua values and numeric vectors, wraps library
// handles as typed userdata and drives Lua model callbacks on behalf of the
// solvers.
//
// Every function takes the *lua.LState it operates on; nothing in this
// package keeps interpreter state in globals.
package bridge
