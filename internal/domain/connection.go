package domain

// ConnectionState represents the state of the feed transport channel.
// It is process-local and never persisted.
type ConnectionState string

const (
	ConnectionDisconnected ConnectionState = "disconnected"
	ConnectionConnecting   ConnectionState = "connecting"
	ConnectionConnected    ConnectionState = "connected"
)
