// Package grafana provides a client for Grafana's datasource query API.
//
// The client posts raw SQL to /api/ds/query with basic auth and decodes the
// returned data frames. Response navigation is tolerant: any missing level
// is reported as ErrNoData rather than a decode failure.
package grafana
