// Package influxdb mirrors telemetry into InfluxDB for long-term
// time-series history. SQLite remains the source of truth; the mirror
// is optional and failures here never fail ingestion.
//
// Writes are non-blocking and batched by the underlying client. Async
// write errors are delivered via the SetOnError callback.
package influxdb
