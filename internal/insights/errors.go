package insights

import "errors"

// Sentinel errors for insight operations, checked with errors.Is().
var (
	// ErrDisabled indicates the AI gateway is disabled in config.
	ErrDisabled = errors.New("insights: disabled in configuration")

	// ErrNoData indicates there are no readings to analyze yet.
	ErrNoData = errors.New("insights: no readings available for analysis")

	// ErrUpstream indicates the AI gateway call failed. Callers of
	// Analyze never see this: the run degrades to a placeholder insight.
	ErrUpstream = errors.New("insights: gateway request failed")
)
