package iot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

// MarkStaleOffline flips isOnline to false on every online installation whose
// last update is older than offlineAfter and returns how many it changed.
func (i *IOT) MarkStaleOffline(ctx context.Context, offlineAfter time.Duration) (int, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTWatchdog),
	)

	installations, err := i.Store.GetAllInstallations(ctx)
	if err != nil {
		return 0, err
	}

	now := i.Clock()
	offline := false
	marked := 0
	for _, inst := range installations {
		if !inst.IsOnline || now.Sub(inst.LastUpdate) <= offlineAfter {
			continue
		}
		if _, err := i.Store.UpdateInstallation(ctx, inst.ID, models.InstallationPatch{IsOnline: &offline}); err != nil {
			return marked, err
		}
		logger.Info("Marked installation offline",
			zap.String("deviceId", inst.DeviceID),
			zap.Time("lastUpdate", inst.LastUpdate),
		)
		marked++
	}
	return marked, nil
}

// RunWatchdog checks for stale installations every interval until ctx is done.
func (i *IOT) RunWatchdog(ctx context.Context, interval, offlineAfter time.Duration) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTWatchdog),
	)
	logger.Info("Watchdog started", zap.Duration("interval", interval), zap.Duration("offlineAfter", offlineAfter))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watchdog stopped")
			return
		case <-ticker.C:
			if _, err := i.MarkStaleOffline(ctx, offlineAfter); err != nil && ctx.Err() == nil {
				logger.Error("Watchdog pass failed", zap.Error(err))
			}
		}
	}
}
