// Package logging provides structured logging for AquaSys Core.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, plus default fields identifying the service.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("mqtt connected", "broker", addr)
//
//	mqttLog := log.With("component", "mqtt")
package logging
