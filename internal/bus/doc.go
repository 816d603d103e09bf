// Package bus provides the in-process event bus for AquaSys Core.
//
// Components that mutate state (the message router, command dispatcher,
// insights analyser) publish change events onto named channels; the
// WebSocket hub and other interested parties subscribe. This gives the
// system a single fan-out point instead of each consumer polling the
// database for changes.
//
// Delivery is non-blocking: a subscriber whose buffer is full misses
// the event. Subscribers carry live UI updates, not durable state, so
// a dropped event only delays the dashboard until the next change.
package bus
