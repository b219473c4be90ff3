package enums

// ConnectionState tracks the realtime channel lifecycle.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)

// IsValid checks whether the state matches the canonical enum.
func (c ConnectionState) IsValid() bool {
	switch c {
	case ConnectionDisconnected, ConnectionConnecting, ConnectionConnected:
		return true
	}
	return false
}
