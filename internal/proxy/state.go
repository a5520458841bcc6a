// SPDX-License-Identifier: MIT

package proxy

// State is the lifecycle state of a single relay.
type State string

const (
	// StatePending is the state before any upstream work starts.
	StatePending State = "pending"

	// StateUpstreamConnecting waits for the upstream status and headers.
	StateUpstreamConnecting State = "upstream_connecting"

	// StateStreaming forwards body bytes to the client.
	StateStreaming State = "streaming"

	// StateClosed means the body was fully relayed or the client left.
	StateClosed State = "closed"

	// StateFailed means the upstream failed before or during streaming.
	StateFailed State = "failed"
)

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateFailed
}

// CanTransitionTo checks whether s may move to target.
//
// Valid transitions:
//   - Pending → UpstreamConnecting
//   - UpstreamConnecting → Streaming, Failed
//   - Streaming → Closed, Failed
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StatePending:
		return target == StateUpstreamConnecting
	case StateUpstreamConnecting:
		return target == StateStreaming || target == StateFailed
	case StateStreaming:
		return target == StateClosed || target == StateFailed
	default:
		return false
	}
}
