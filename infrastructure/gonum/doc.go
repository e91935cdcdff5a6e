// Package gonum implements the numerical library ports on top of gonum.
//
// Status codes follow the convention of the bridged library: positive values
// report success (and for nonlinear fitting the termination reason), negative
// values report failures such as invalid arguments.
package gonum
