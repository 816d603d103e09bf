package mqtt

// ConnState describes where the client is in its connection lifecycle.
//
// Transitions:
//
//	Disconnected → Connecting → Connected
//	                    ↑            │ (connection lost)
//	                    └─ Backoff ←─┘
//
// Close() from any state returns to Disconnected.
type ConnState int32

const (
	// StateDisconnected means no connection and no reconnect in progress.
	StateDisconnected ConnState = iota

	// StateConnecting means a connection attempt is in flight.
	StateConnecting

	// StateConnected means the broker connection is established.
	StateConnected

	// StateBackoff means the connection was lost and the client is
	// waiting out a backoff delay before the next attempt.
	StateBackoff
)

// String returns a human-readable name for the state.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// State returns the client's current connection state.
func (c *Client) State() ConnState {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.state
}

// SetOnStateChange sets a callback invoked on every state transition.
// The callback receives the old and new states. It is invoked from the
// client's internal goroutines and must not block.
func (c *Client) SetOnStateChange(callback func(from, to ConnState)) {
	c.callbackMu.Lock()
	c.onStateChange = callback
	c.callbackMu.Unlock()
}

// setState transitions to a new state and fires the state change
// callback. No-op if the state is unchanged.
func (c *Client) setState(to ConnState) {
	c.connMu.Lock()
	from := c.state
	if from == to {
		c.connMu.Unlock()
		return
	}
	c.state = to
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onStateChange
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(from, to)
	}
}
