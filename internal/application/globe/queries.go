package globe

// LiveCitiesSQL counts distinct active workers per (city, country) over the last hour.
// Columns are positional: city, country, workers.
// FINAL collapses the CDC-replicated worker registry to its latest row versions.
const LiveCitiesSQL = `
SELECT w.geo_city, w.geo_country, count(DISTINCT w.id) AS workers
FROM gateway_analytics.tasks t
JOIN gateway_analytics.workers_analytics w FINAL ON w.id = t.worker_id
WHERE t.created_at >= now() - INTERVAL 1 HOUR
AND t.state IN ('in_progress', 'completed')
AND w._peerdb_is_deleted = 0
AND w.geo_city != ''
AND w.geo_country != ''
GROUP BY w.geo_city, w.geo_country
ORDER BY workers DESC
`

// TotalActiveSQL counts distinct active workers over the last hour, with or without geo data.
const TotalActiveSQL = `
SELECT count(DISTINCT w.id) AS workers
FROM gateway_analytics.tasks t
JOIN gateway_analytics.workers_analytics w FINAL ON w.id = t.worker_id
WHERE t.created_at >= now() - INTERVAL 1 HOUR
AND t.state IN ('in_progress', 'completed')
AND w._peerdb_is_deleted = 0
`

// TasksPerSecondSQL is the completion rate over the last 30 seconds.
const TasksPerSecondSQL = `
SELECT count(*) / 30.0 AS tps
FROM gateway_analytics.tasks
WHERE created_at >= now() - INTERVAL 30 SECOND
AND state = 'completed'
`
