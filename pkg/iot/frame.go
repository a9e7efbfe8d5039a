package iot

import (
	"encoding/json"
	"time"
)

const (
	FrameTypeTelemetry             = "arduino_data"
	FrameTypeConnectionEstablished = "connection_established"
	FrameTypeDataUpdate            = "solar_data_update"
	FrameTypeError                 = "error"

	ConnectionEstablishedMessage = "Arduino connected successfully"
	InvalidDataFormatMessage     = "Invalid data format"
	RateLimitedMessage           = "rate limit exceeded"
	IngestFailedMessage          = "Failed to store data"

	// FrameTimeLayout renders timestamps with millisecond precision, e.g.
	// 2024-06-01T08:00:00.000Z.
	FrameTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Frame is every JSON object exchanged on the telemetry socket.
type Frame struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Details   []string        `json:"details,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

func ConnectionEstablishedFrame() []byte {
	return mustEncode(Frame{Type: FrameTypeConnectionEstablished, Message: ConnectionEstablishedMessage})
}

func ErrorFrame(message string, details ...string) []byte {
	return mustEncode(Frame{Type: FrameTypeError, Message: message, Details: details})
}

// DataUpdateFrame wraps the inbound telemetry unchanged.
func DataUpdateFrame(raw []byte, at time.Time) ([]byte, error) {
	return json.Marshal(Frame{
		Type:      FrameTypeDataUpdate,
		Data:      json.RawMessage(raw),
		Timestamp: at.UTC().Format(FrameTimeLayout),
	})
}

func mustEncode(f Frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// only string fields, cannot fail
		panic(err)
	}
	return b
}
