package mqtt

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
	_ "liyu1981.xyz/solar-telemetry-service/pkg/testing"
	"liyu1981.xyz/solar-telemetry-service/pkg/ws"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newBridge(t *testing.T) (*Bridge, *ws.Hub) {
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	hub := ws.NewHub()
	return NewBridge(iot.New(s, nil), hub, Options{Broker: "tcp://localhost:1883"}), hub
}

func TestNewBridgeDefaults(t *testing.T) {
	b, _ := newBridge(t)
	assert.Equal(t, DefaultTopic, b.opts.Topic)
	assert.Equal(t, DefaultClientID, b.opts.ClientID)
}

func TestHandleMessageIngests(t *testing.T) {
	common.SetTestLoggerNop()
	b, _ := newBridge(t)

	b.HandleMessage(nil, &fakeMessage{
		topic:   DefaultTopic,
		payload: []byte(`{"type":"arduino_data","deviceId":"MQ-1","power":90,"voltage":12,"current":7.5,"irradiance":650,"district":"Udupi"}`),
	})

	inst, err := b.Iot.Store.GetInstallationByDeviceID(context.Background(), "MQ-1")
	require.NoError(t, err)
	assert.Equal(t, "Udupi", inst.District)
	assert.Equal(t, 90.0, inst.CurrentPower)
	assert.True(t, inst.IsOnline)
}

func TestHandleMessageRejectsInvalidPayload(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer common.SetTestLoggerNop()

	b, _ := newBridge(t)
	b.HandleMessage(nil, &fakeMessage{topic: DefaultTopic, payload: []byte(`{"type":"arduino_data","deviceId":"MQ-1"}`)})
	b.HandleMessage(nil, &fakeMessage{topic: DefaultTopic, payload: []byte(`{"type":"status"}`)})

	installations, readings, err := b.Iot.Store.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, installations)
	assert.Zero(t, readings)
	assert.Contains(t, buf.String(), "Rejected telemetry payload")
	assert.NotContains(t, buf.String(), "Dropped non telemetry payload")
}

func TestStartFailsWithoutBroker(t *testing.T) {
	common.SetTestLoggerNop()
	s := store.NewMemoryStore()
	defer s.Close()

	b := NewBridge(iot.New(s, nil), nil, Options{Broker: "tcp://127.0.0.1:1"})
	err := b.Start(context.Background())
	assert.Error(t, err)
	b.Stop()
}

func TestHandleMessageBroadcastsToWebSocketPeers(t *testing.T) {
	common.SetTestLoggerNop()
	b, hub := newBridge(t)

	srv := httptest.NewServer(ws.NewServer(b.Iot, hub, ws.Options{}))
	defer srv.Close()
	defer hub.Close()

	viewer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer viewer.Close()

	require.NoError(t, viewer.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame iot.Frame
	require.NoError(t, viewer.ReadJSON(&frame))
	require.Equal(t, iot.FrameTypeConnectionEstablished, frame.Type)

	payload := `{"type":"arduino_data","deviceId":"MQ-2","power":1,"voltage":2,"current":3,"irradiance":4}`
	b.HandleMessage(nil, &fakeMessage{topic: DefaultTopic, payload: []byte(payload)})

	require.NoError(t, viewer.ReadJSON(&frame))
	assert.Equal(t, iot.FrameTypeDataUpdate, frame.Type)
	assert.JSONEq(t, payload, string(frame.Data))
}
