package iot

import (
	"context"
	"time"

	"liyu1981.xyz/solar-telemetry-service/pkg/models"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
)

//go:generate mockgen -source=iot.go -destination=mocks/mock_iot.go -package=mocks

type IInstallation interface {
	ListInstallations(ctx context.Context) ([]models.Installation, error)
	GetInstallation(ctx context.Context, id string) (*models.Installation, error)
	GetInstallationByDeviceID(ctx context.Context, deviceID string) (*models.Installation, error)
	ListInstallationsByDistrict(ctx context.Context, district string) ([]models.Installation, error)
	ListInstallationsByState(ctx context.Context, state string) ([]models.Installation, error)
}

type IReading interface {
	LatestReadings(ctx context.Context, limit int) ([]models.Reading, error)
	DeviceReadings(ctx context.Context, deviceID string, limit int) ([]models.Reading, error)
}

type ITelemetry interface {
	// Ingest validates one inbound frame, stores it and returns the update
	// to fan out to the other peers.
	Ingest(ctx context.Context, raw []byte) (*TelemetryUpdate, error)
}

type IOT struct {
	Store store.Store
	// Limiter is nil when per-device rate limiting is off.
	Limiter *RateLimiterStore
	Clock   func() time.Time

	Installation IInstallation
	Reading      IReading
	Telemetry    ITelemetry
}

type ServiceOpts struct {
	Installation IInstallation
	Reading      IReading
	Telemetry    ITelemetry
}

// New wires the default services over s. limiter may be nil.
func New(s store.Store, limiter *RateLimiterStore) *IOT {
	i := &IOT{
		Store:   s,
		Limiter: limiter,
		Clock:   func() time.Time { return time.Now().UTC() },
	}
	return i.WithServices(ServiceOpts{
		Installation: i.GetIInstallation(),
		Reading:      i.GetIReading(),
		Telemetry:    i.GetITelemetry(),
	})
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Installation != nil {
		i.Installation = opts.Installation
	}
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Telemetry != nil {
		i.Telemetry = opts.Telemetry
	}
	return i
}
