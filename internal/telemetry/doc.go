// Package telemetry implements the AquaSys ingest pipeline: routing
// inbound MQTT messages, validating sensor payloads, and persisting
// readings and relay status snapshots.
//
// # Pipeline
//
//	MQTT message → Router.Route (topic dispatch, key normalisation)
//	             → Gateway.ProcessSensors / ProcessRelayStatus
//	             → SQLite insert + event log entry + bus publish
//
// Readings and relay status rows are write-once: there are no update or
// delete paths anywhere in this package.
//
// # Validation
//
// Sensor payloads require all five numeric fields to be present and
// non-zero. A reading of exactly zero is indistinguishable from a
// missing field and is rejected; the relay firmware never reports true
// zeros in practice and the dashboard relies on zero-rejection to
// filter boot-time garbage, so this behaviour is kept. See
// Gateway.ProcessSensors.
//
// Errors are terminal per message: a failed validation or insert is
// logged to the event log and dropped, and the pipeline waits for the
// next inbound message. No retries.
package telemetry
