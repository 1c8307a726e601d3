// Package http provides the HTTP server.
//
// The server exposes:
//   - GET /api/data: live globe metrics as JSON, always 200
//   - GET /health: liveness check
//   - GET /metrics: Prometheus metrics
//
// Any other path is served from the static asset directory.
package http
