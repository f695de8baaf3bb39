package tlssocket

// State is the lifecycle state of a Channel.
type State uint8

// Channel states.
const (
	StateUnopened State = iota
	StateTransportConnected
	StateHandshakeInProgress
	StateEstablished
	StateClosed
	StateFailed
)

var stateNames = map[State]string{
	StateUnopened:            "UNOPENED",
	StateTransportConnected:  "TRANSPORT_CONNECTED",
	StateHandshakeInProgress: "HANDSHAKE_IN_PROGRESS",
	StateEstablished:         "ESTABLISHED",
	StateClosed:              "CLOSED",
	StateFailed:              "FAILED",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
