package proxy

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
)

var (
	WeatherFallback = gin.H{
		"main":    gin.H{"temp": 25, "humidity": 60},
		"weather": []gin.H{{"main": "Clear", "description": "clear sky"}},
		"clouds":  gin.H{"all": 10},
	}
	SolarInsightFallback = gin.H{
		"solarPotential": gin.H{
			"yearlyEnergyDcKwh": 1500,
			"roofSegmentSummaries": []gin.H{
				{"yearlyEnergyDcKwh": 1500, "segmentIndex": 0},
			},
		},
	}
)

type Handlers struct {
	Client *Client
}

func NewHandlers(client *Client) *Handlers {
	return &Handlers{Client: client}
}

func (h *Handlers) RegisterRoutes(r gin.IRouter) {
	r.GET("/pvgis/:lat/:lng", h.PVGIS)
	r.GET("/weather/:lat/:lng", h.Weather)
	r.GET("/solar-insight/:lat/:lng", h.SolarInsight)
}

func logger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameProxy,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryProxyUpstream),
	)
}

func parseCoord(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// coords reads :lat and :lng, answering 400 itself when either is not a number.
func coords(c *gin.Context) (float64, float64, bool) {
	lat, okLat := parseCoord(c.Param("lat"))
	lng, okLng := parseCoord(c.Param("lng"))
	if !okLat || !okLng {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinates"})
		return 0, 0, false
	}
	return lat, lng, true
}

func (h *Handlers) PVGIS(c *gin.Context) {
	lat, lng, ok := coords(c)
	if !ok {
		return
	}

	data, err := h.Client.PVGIS(c.Request.Context(), lat, lng)
	if err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	logger().Warn("PVGIS request failed", zap.Error(err))
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		c.JSON(upstream.Status, gin.H{"error": "PVGIS API error", "details": upstream.Body})
	case errors.Is(err, ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "PVGIS API timeout"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch PVGIS data"})
	}
}

func (h *Handlers) Weather(c *gin.Context) {
	lat, lng, ok := coords(c)
	if !ok {
		return
	}
	if !h.Client.HasOpenWeatherKey() {
		c.JSON(http.StatusOK, WeatherFallback)
		return
	}

	data, err := h.Client.Weather(c.Request.Context(), lat, lng)
	if err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	logger().Warn("OpenWeather request failed", zap.Error(err))
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream) && upstream.Status == http.StatusUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid OpenWeather API key"})
	case errors.Is(err, ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Weather API timeout"})
	default:
		c.JSON(http.StatusOK, WeatherFallback)
	}
}

func (h *Handlers) SolarInsight(c *gin.Context) {
	lat, lng, ok := coords(c)
	if !ok {
		return
	}
	if !h.Client.HasGoogleSolarKey() {
		c.JSON(http.StatusOK, SolarInsightFallback)
		return
	}

	data, err := h.Client.SolarInsight(c.Request.Context(), lat, lng)
	if err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	}

	logger().Warn("Google Solar request failed", zap.Error(err))
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream) && upstream.Status == http.StatusForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid Google Solar API key"})
	case errors.Is(err, ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Google Solar API timeout"})
	default:
		c.JSON(http.StatusOK, SolarInsightFallback)
	}
}
