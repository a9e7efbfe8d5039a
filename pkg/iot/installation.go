package iot

import (
	"context"

	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

func installationLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTInstallation),
	)
}

type IInstallationImpl struct {
	iot *IOT
}

func (ii *IInstallationImpl) ListInstallations(ctx context.Context) ([]models.Installation, error) {
	return ii.iot.Store.GetAllInstallations(ctx)
}

func (ii *IInstallationImpl) GetInstallation(ctx context.Context, id string) (*models.Installation, error) {
	inst, err := ii.iot.Store.GetInstallation(ctx, id)
	if err != nil {
		installationLogger().Debug("Installation lookup failed", zap.String("id", id), zap.Error(err))
	}
	return inst, err
}

func (ii *IInstallationImpl) GetInstallationByDeviceID(ctx context.Context, deviceID string) (*models.Installation, error) {
	inst, err := ii.iot.Store.GetInstallationByDeviceID(ctx, deviceID)
	if err != nil {
		installationLogger().Debug("Installation lookup failed", zap.String("deviceId", deviceID), zap.Error(err))
	}
	return inst, err
}

func (ii *IInstallationImpl) ListInstallationsByDistrict(ctx context.Context, district string) ([]models.Installation, error) {
	return ii.iot.Store.GetInstallationsByDistrict(ctx, district)
}

func (ii *IInstallationImpl) ListInstallationsByState(ctx context.Context, state string) ([]models.Installation, error) {
	return ii.iot.Store.GetInstallationsByState(ctx, state)
}

func (i *IOT) GetIInstallation() IInstallation {
	return &IInstallationImpl{iot: i}
}
