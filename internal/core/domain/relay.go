package domain

type SessionID string

// RelayState is the lifecycle of one relayed WebSocket session.
type RelayState int32

const (
	RelayConnecting RelayState = iota
	RelayOpen
	RelayClosing
	RelayClosed
)

func (s RelayState) String() string {
	switch s {
	case RelayConnecting:
		return "connecting"
	case RelayOpen:
		return "open"
	case RelayClosing:
		return "closing"
	case RelayClosed:
		return "closed"
	default:
		return "unknown"
	}
}
