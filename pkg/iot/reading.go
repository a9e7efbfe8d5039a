package iot

import (
	"context"

	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

type IReadingImpl struct {
	iot *IOT
}

// capLimit bounds limit by common.MaxReadingsLimit, transports apply the
// default before calling.
func capLimit(limit int) int {
	if limit > common.MaxReadingsLimit {
		common.GetLoggerWith(
			common.LoggerNameIOTCore,
			zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTReading),
		).Debug("Readings limit capped", zap.Int("requested", limit), zap.Int("max", common.MaxReadingsLimit))
		return common.MaxReadingsLimit
	}
	return limit
}

func (ir *IReadingImpl) LatestReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	return ir.iot.Store.GetLatestReadings(ctx, capLimit(limit))
}

func (ir *IReadingImpl) DeviceReadings(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	return ir.iot.Store.GetReadingsByDeviceID(ctx, deviceID, capLimit(limit))
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
