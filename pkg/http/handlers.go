package http

import (
	"errors"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
)

func internalError(c *gin.Context, message string, err error) {
	common.GetLoggerWith(common.LoggerNameRestfulServer).Error(message,
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func (rs *RestfulServer) GetAllInstallations(c *gin.Context) {
	installations, err := rs.Iot.Installation.ListInstallations(c.Request.Context())
	if err != nil {
		internalError(c, "Failed to fetch installations", err)
		return
	}
	c.JSON(http.StatusOK, installations)
}

func (rs *RestfulServer) writeInstallation(c *gin.Context, inst *models.Installation, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, inst)
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "installation not found"})
	default:
		internalError(c, "Failed to fetch installation", err)
	}
}

func (rs *RestfulServer) GetInstallation(c *gin.Context) {
	inst, err := rs.Iot.Installation.GetInstallation(c.Request.Context(), c.Param("id"))
	rs.writeInstallation(c, inst, err)
}

func (rs *RestfulServer) GetInstallationByDeviceID(c *gin.Context) {
	inst, err := rs.Iot.Installation.GetInstallationByDeviceID(c.Request.Context(), c.Param("deviceId"))
	rs.writeInstallation(c, inst, err)
}

func (rs *RestfulServer) GetInstallationsByDistrict(c *gin.Context) {
	installations, err := rs.Iot.Installation.ListInstallationsByDistrict(c.Request.Context(), c.Param("district"))
	if err != nil {
		internalError(c, "Failed to fetch installations by district", err)
		return
	}
	c.JSON(http.StatusOK, installations)
}

func (rs *RestfulServer) GetInstallationsByState(c *gin.Context) {
	installations, err := rs.Iot.Installation.ListInstallationsByState(c.Request.Context(), c.Param("state"))
	if err != nil {
		internalError(c, "Failed to fetch installations by state", err)
		return
	}
	c.JSON(http.StatusOK, installations)
}

func (rs *RestfulServer) GetLatestReadings(c *gin.Context) {
	limit := common.ParseLimit(c.Query("limit"))

	readings, err := rs.Iot.Reading.LatestReadings(c.Request.Context(), limit)
	if err != nil {
		internalError(c, "Failed to fetch latest readings", err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

func (rs *RestfulServer) GetDeviceReadings(c *gin.Context) {
	limit := common.ParseLimit(c.Query("limit"))

	readings, err := rs.Iot.Reading.DeviceReadings(c.Request.Context(), c.Param("deviceId"), limit)
	if err != nil {
		internalError(c, "Failed to fetch device readings", err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required().GT(0),
	"burst": z.Int().Required().GT(0),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("deviceId")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	if !rs.SetLimiter(deviceID, req.Rate, req.Burst) {
		c.JSON(http.StatusConflict, gin.H{"error": "rate limiting is disabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
