package coordinator

import "time"

// LiveMessage is the shape returned by GetLatestLiveMessage: the raw
// payload's decoded value nested under an inner "message" field, plus
// the receipt timestamp.
type LiveMessage struct {
	Message   InnerMessage
	Timestamp time.Time
}

// InnerMessage carries the decoded value for a LiveMessage.
type InnerMessage struct {
	Message any
}

// ConnectionState is the coordinator's view of the MQTT session.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Reconnecting
	Offline
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}
