package http

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"liyu1981.xyz/solar-telemetry-service/pkg/iot"
	"liyu1981.xyz/solar-telemetry-service/pkg/proxy"
	"liyu1981.xyz/solar-telemetry-service/pkg/ws"
)

type RestfulServer struct {
	Server *gin.Engine
	Iot    *iot.IOT
	// WsServer serves /ws when set.
	WsServer *ws.Server
	// Proxy serves the third party lookups under /api when set.
	Proxy *proxy.Handlers
}

func (rs *RestfulServer) limiterStore() *iot.RateLimiterStore {
	if rs.Iot == nil {
		return nil
	}
	return rs.Iot.Limiter
}

// SetLimiter reports false when rate limiting is disabled.
func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) bool {
	limiters := rs.limiterStore()
	if limiters == nil {
		return false
	}
	limiters.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
	return true
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	if rs.WsServer != nil {
		rs.Server.GET("/ws", rs.WsServer.Handle)
	}

	api := rs.Server.Group("/api")
	{
		installations := api.Group("/installations")
		installations.GET("", rs.GetAllInstallations)
		installations.GET("/:id", rs.GetInstallation)
		installations.GET("/device/:deviceId", rs.GetInstallationByDeviceID)
		installations.GET("/district/:district", rs.GetInstallationsByDistrict)
		installations.GET("/state/:state", rs.GetInstallationsByState)

		readings := api.Group("/readings")
		readings.GET("/latest", rs.GetLatestReadings)
		readings.GET("/device/:deviceId", rs.GetDeviceReadings)

		api.POST("/devices/:deviceId/limiter", rs.PostLimiter)

		if rs.Proxy != nil {
			rs.Proxy.RegisterRoutes(api)
		}
	}
}
