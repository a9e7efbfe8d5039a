package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

type seedFile struct {
	Installations []models.NewInstallation `yaml:"installations"`
}

// SeedFromYAML creates the installations listed in r whose deviceId is not
// stored yet and returns how many were created.
func SeedFromYAML(ctx context.Context, s Store, r io.Reader) (int, error) {
	logger := common.GetLoggerWith(common.LoggerNameStore, zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryStoreSeed))

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed: %w", err)
	}
	var seed seedFile
	if err := yaml.UnmarshalStrict(data, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed: %w", err)
	}

	for i, in := range seed.Installations {
		if in.DeviceID == "" {
			return 0, fmt.Errorf("seed installation %d: deviceId is required", i)
		}
		if in.Status != "" && !in.Status.Valid() {
			return 0, fmt.Errorf("seed installation %s: invalid status %q", in.DeviceID, in.Status)
		}
	}

	created := 0
	for _, in := range seed.Installations {
		inst, err := s.CreateInstallation(ctx, in)
		if errors.Is(err, ErrDuplicateDevice) {
			logger.Info("Skipping seeded installation, device already known", zap.String("deviceId", in.DeviceID))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed installation %s: %w", in.DeviceID, err)
		}
		logger.Debug("Seeded installation", zap.String("id", inst.ID), zap.String("deviceId", inst.DeviceID))
		created++
	}

	logger.Info("Seed completed", zap.Int("created", created), zap.Int("listed", len(seed.Installations)))
	return created, nil
}

func SeedFromFile(ctx context.Context, s Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return SeedFromYAML(ctx, s, f)
}
