package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
)

type Options struct {
	// ReadLimit caps one inbound frame in bytes, 0 disables the cap.
	ReadLimit int64
	// SendQueue is the per peer outbound buffer, full queues drop frames.
	SendQueue int
}

type Server struct {
	Iot      *iot.IOT
	Hub      *Hub
	opts     Options
	upgrader websocket.Upgrader
}

func NewServer(iotObj *iot.IOT, hub *Hub, opts Options) *Server {
	return &Server{
		Iot:  iotObj,
		Hub:  hub,
		opts: opts,
		upgrader: websocket.Upgrader{
			// devices and the dashboard connect from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handle(c *gin.Context) {
	s.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := common.GetLoggerWith(
		common.LoggerNameWsServer,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryWsConnection),
	)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	if s.opts.ReadLimit > 0 {
		conn.SetReadLimit(s.opts.ReadLimit)
	}

	client := newClient(conn, s.opts.SendQueue)
	// queued ahead of registration so no broadcast can overtake it
	client.Send(iot.ConnectionEstablishedFrame())
	if !s.Hub.Register(client) {
		logger.Info("Rejected connection, server is shutting down", zap.String("remote", client.Remote))
		_ = conn.Close()
		return
	}
	logger.Info("Device connected", zap.String("remote", client.Remote), zap.Int("peers", s.Hub.Len()))

	go client.writePump()
	s.readPump(context.WithoutCancel(r.Context()), client)

	logger.Info("Device disconnected", zap.String("remote", client.Remote), zap.Int("peers", s.Hub.Len()))
}

func (s *Server) readPump(ctx context.Context, client *Client) {
	defer func() {
		s.Hub.Unregister(client)
		client.Close()
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				common.GetLoggerWith(common.LoggerNameWsServer).Debug("Connection read ended", zap.String("remote", client.Remote), zap.Error(err))
			}
			return
		}
		s.handleFrame(ctx, client, data)
	}
}

func (s *Server) handleFrame(ctx context.Context, client *Client, data []byte) {
	logger := common.GetLoggerWith(
		common.LoggerNameWsServer,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryWsBroadcast),
	)

	update, err := s.Iot.Telemetry.Ingest(ctx, data)
	if err == nil {
		delivered := s.Hub.Broadcast(update.Frame, client)
		logger.Debug("Broadcast telemetry update", zap.String("deviceId", *update.Message.DeviceID), zap.Int("peers", delivered))
		return
	}

	var verr *iot.ValidationError
	switch {
	case errors.Is(err, iot.ErrNotTelemetry):
		logger.Debug("Dropped non telemetry frame", zap.String("remote", client.Remote))
	case errors.As(err, &verr):
		logger.Info("Rejected invalid telemetry", zap.String("remote", client.Remote), zap.Strings("details", verr.Details))
		client.Send(iot.ErrorFrame(iot.InvalidDataFormatMessage, verr.Details...))
	case errors.Is(err, iot.ErrRateLimited):
		client.Send(iot.ErrorFrame(iot.RateLimitedMessage))
	default:
		logger.Error("Failed to ingest telemetry", zap.String("remote", client.Remote), zap.Error(err))
		client.Send(iot.ErrorFrame(iot.IngestFailedMessage))
	}
}
