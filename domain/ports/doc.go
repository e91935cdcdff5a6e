// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the bridge depends on abstractions,
// and the numerical library adapter implements these interfaces.
package ports
