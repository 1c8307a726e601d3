// Package globe computes the live metrics shown on the globe visualization.
//
// Three extractors each run one fixed ClickHouse query through a Querier:
//   - live cities: active workers grouped by (city, country)
//   - total active: distinct active workers, including those without geo data
//   - tasks per second: completed tasks over the last 30 seconds
//
// Extractors return a Result. The Aggregator resolves failed results to
// their zero defaults so a snapshot can always be served.
package globe
