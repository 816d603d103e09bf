// Package relay implements the AquaSys control path: relay commands,
// per-relay automation configuration, and delivery of configuration to
// the relay module over MQTT.
//
// # Commands
//
// A command is a row in relay_commands with executed=false. This core
// records commands; it does not deliver them. Delivery is the job of an
// external executor bridge which polls the pending-command surface
// (ListPending) and flips the claim flag (MarkExecuted) once the relay
// module has acted. Commands have no deadline or retry: a command stays
// pending until an executor claims it.
//
// RelayIndex -1 is the reserved ping sentinel (PingRelayIndex): not a
// real relay, but a probe the executor answers to prove the MQTT path
// is alive.
//
// # Configuration
//
// Each relay has exactly one Config row keyed by relay_index. A relay's
// behaviour is selected by Mode; the parameters relevant to that mode
// are exposed as a typed parameter struct via Config.Params(), so
// consumers switch on one tagged union instead of probing field
// combinations. Saving a config pushes the wire translation to the
// relay module when the transport is connected; when it is not, the
// save still succeeds and the module catches up on the next save.
package relay
