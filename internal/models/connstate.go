package models

// ConnState tracks the notification client's lifecycle. Any state can fall
// back to Disconnected on an I/O failure; Stopped is terminal.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Subscribed
	Listening
	Stopped
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Listening:
		return "listening"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}
