// Package metrics provides metrics collector implementations.
//
// Implementations:
//   - prometheus: client_golang collectors on an injected registry
package metrics
