// Package entities provides the value types that cross the bridge between the
// numerical library and its hosts: vectors, matrices, result records and the
// tagged host values returned by callbacks.
//
// These types carry no host-runtime state. Hosts (Lua, WASM guests) marshal
// to and from them at their own boundary.
package entities
