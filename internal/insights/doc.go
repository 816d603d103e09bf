// Package insights generates AI analysis of recent telemetry.
//
// An analysis run computes summary statistics over the most recent
// readings, sends them to an external chat-completion gateway, and
// stores the structured insights it returns. The gateway is treated as
// an opaque, possibly-slow, possibly-failing collaborator: there is no
// retry, and a failed or unparseable response degrades to a single
// placeholder insight rather than a failed run.
//
// Each run deactivates the previous run's insights so the dashboard
// only ever shows the latest analysis.
package insights
