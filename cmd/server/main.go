package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/config"
	iotGrpc "liyu1981.xyz/solar-telemetry-service/pkg/grpc"
	iotHttp "liyu1981.xyz/solar-telemetry-service/pkg/http"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
	"liyu1981.xyz/solar-telemetry-service/pkg/mqtt"
	"liyu1981.xyz/solar-telemetry-service/pkg/proxy"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
	"liyu1981.xyz/solar-telemetry-service/pkg/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := common.GetLogger()
	defer common.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataStore, err := store.Open(cfg.DBType)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer dataStore.Close()

	if cfg.SeedFile != "" {
		created, err := store.SeedFromFile(ctx, dataStore, cfg.SeedFile)
		if err != nil {
			logger.Fatal("Failed to seed installations", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
		logger.Info("Seeded installations", zap.Int("created", created))
	}

	var limiters *iot.RateLimiterStore
	if cfg.LimiterEnabled() {
		limiters = iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)
	}
	iotCore := iot.New(dataStore, limiters)

	hub := ws.NewHub()
	wsServer := ws.NewServer(iotCore, hub, ws.Options{ReadLimit: cfg.WsReadLimit})

	if cfg.OfflineAfter > 0 {
		go iotCore.RunWatchdog(ctx, max(cfg.OfflineAfter/4, time.Second), cfg.OfflineAfter)
	}

	if cfg.MqttBroker != "" {
		bridge := mqtt.NewBridge(iotCore, hub, mqtt.Options{
			Broker:   cfg.MqttBroker,
			Topic:    cfg.MqttTopic,
			ClientID: cfg.MqttClientID,
		})
		if err := bridge.Start(ctx); err != nil {
			logger.Fatal("Failed to start MQTT bridge", zap.Error(err))
		}
		defer bridge.Stop()
	}

	if cfg.GrpcHostPort != "" {
		grpcServer := startGrpc(cfg, iotCore, logger)
		defer grpcServer.GracefulStop()
	}

	rs := &iotHttp.RestfulServer{
		Server:   gin.Default(),
		Iot:      iotCore,
		WsServer: wsServer,
		Proxy: proxy.NewHandlers(proxy.NewClient(
			proxy.WithAPIKeys(cfg.OpenWeatherAPIKey, cfg.GoogleSolarAPIKey),
		)),
	}
	rs.Setup()

	httpServer := &http.Server{
		Addr:    cfg.HttpHostPort,
		Handler: cors.AllowAll().Handler(rs.Server),
	}

	go func() {
		logger.Info("Starting HTTP server on: "+cfg.HttpHostPort,
			zap.Bool("limiter", cfg.LimiterEnabled()),
			zap.String("store", cfg.DBType),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed to serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	// hijacked WebSocket connections are not closed by Shutdown
	hub.Close()
}

func startGrpc(cfg *config.Config, iotCore *iot.IOT, logger *zap.Logger) *grpc.Server {
	iotGrpcServer := &iotGrpc.IOTServer{Iot: iotCore}
	if cfg.LimiterEnabled() {
		iotGrpcServer.RateLimiterStore = iot.NewRateLimiterStore(rate.Limit(cfg.DefaultRate), cfg.DefaultBurst)
	}
	s := iotGrpcServer.NewGrpcServer()

	listener, err := net.Listen("tcp", cfg.GrpcHostPort)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("address", cfg.GrpcHostPort), zap.Error(err))
	}

	go func() {
		logger.Info("Starting gRPC server on: " + cfg.GrpcHostPort)
		if err := s.Serve(listener); err != nil {
			logger.Error("grpc server failed to serve", zap.Error(err))
		}
	}()
	return s
}
