// Package mqtt feeds telemetry published on an MQTT topic through the same
// ingest path as the WebSocket endpoint.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
	"liyu1981.xyz/solar-telemetry-service/pkg/ws"
)

const (
	DefaultTopic    = "solar/telemetry"
	DefaultClientID = "solar-telemetry-service"

	connectTimeout = 10 * time.Second
)

type Options struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

type Bridge struct {
	Iot *iot.IOT
	Hub *ws.Hub

	opts   Options
	ctx    context.Context
	client paho.Client
}

func NewBridge(iotObj *iot.IOT, hub *ws.Hub, opts Options) *Bridge {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = DefaultClientID
	}
	return &Bridge{
		Iot:  iotObj,
		Hub:  hub,
		opts: opts,
		ctx:  context.Background(),
	}
}

// Start connects to the broker and subscribes. The subscription is renewed
// on every reconnect.
func (b *Bridge) Start(ctx context.Context) error {
	logger := common.GetLoggerWith(common.LoggerNameMqttBridge)
	b.ctx = ctx

	opts := paho.NewClientOptions()
	opts.AddBroker(b.opts.Broker)
	opts.SetClientID(b.opts.ClientID)
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(b.opts.Topic, b.opts.QoS, b.HandleMessage)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			logger.Error("Failed to subscribe", zap.String("topic", b.opts.Topic), zap.Error(token.Error()))
			return
		}
		logger.Info("Subscribed to telemetry topic", zap.String("topic", b.opts.Topic))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	b.client = paho.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to %s", b.opts.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", b.opts.Broker, err)
	}

	logger.Info("Connected to MQTT broker", zap.String("broker", b.opts.Broker))
	return nil
}

func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}

// HandleMessage ingests one payload and fans the update out to every
// WebSocket peer. Failures are only logged, MQTT has no reply channel.
func (b *Bridge) HandleMessage(_ paho.Client, msg paho.Message) {
	logger := common.GetLoggerWith(
		common.LoggerNameMqttBridge,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTTelemetry),
	)

	update, err := b.Iot.Telemetry.Ingest(b.ctx, msg.Payload())
	if err != nil {
		if errors.Is(err, iot.ErrNotTelemetry) {
			logger.Debug("Dropped non telemetry payload", zap.String("topic", msg.Topic()))
			return
		}
		logger.Warn("Rejected telemetry payload", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	delivered := 0
	if b.Hub != nil {
		delivered = b.Hub.Broadcast(update.Frame, nil)
	}
	logger.Debug("Bridged telemetry",
		zap.String("deviceId", *update.Message.DeviceID),
		zap.Int("peers", delivered),
	)
}
