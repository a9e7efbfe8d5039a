// Package store keeps installations and readings for the lifetime of the
// process. Two backends implement Store: MemoryStore (maps guarded by a
// mutex) and SQLStore (gorm over an in-memory sqlite database).
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"liyu1981.xyz/solar-telemetry-service/pkg/db"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

var (
	ErrNotFound = errors.New("no such record")
	ErrClosed   = errors.New("store is closed")
	// ErrDuplicateDevice is returned when creating an installation for a
	// deviceId that already has one.
	ErrDuplicateDevice = errors.New("installation for device already exists")
)

type Store interface {
	// CreateInstallation returns ErrDuplicateDevice when the deviceId is taken.
	CreateInstallation(ctx context.Context, in models.NewInstallation) (*models.Installation, error)
	// UpdateInstallation returns ErrNotFound and leaves the store untouched
	// when id is unknown.
	UpdateInstallation(ctx context.Context, id string, patch models.InstallationPatch) (*models.Installation, error)
	GetInstallation(ctx context.Context, id string) (*models.Installation, error)
	GetInstallationByDeviceID(ctx context.Context, deviceID string) (*models.Installation, error)
	GetInstallationsByDistrict(ctx context.Context, district string) ([]models.Installation, error)
	GetInstallationsByState(ctx context.Context, state string) ([]models.Installation, error)
	GetAllInstallations(ctx context.Context) ([]models.Installation, error)

	AddReading(ctx context.Context, in models.NewReading) (*models.Reading, error)
	GetReadingsByDeviceID(ctx context.Context, deviceID string, limit int) ([]models.Reading, error)
	GetLatestReadings(ctx context.Context, limit int) ([]models.Reading, error)

	// UpsertInstallationByDeviceID patches the installation of deviceID, or
	// creates it from create when the device is unseen, as one atomic step.
	UpsertInstallationByDeviceID(ctx context.Context, deviceID string, create models.NewInstallation, patch models.InstallationPatch) (*models.Installation, bool, error)
	// IngestTelemetry appends the reading and upserts the installation
	// atomically, on error neither is applied.
	IngestTelemetry(ctx context.Context, rec models.TelemetryRecord) (*models.IngestResult, error)

	Counts(ctx context.Context) (installations int, readings int, err error)
	Close() error
}

type options struct {
	now   func() time.Time
	newID func() string
}

type Option func(*options)

// WithClock replaces the time source used for LastUpdate and Timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const (
	KindMemory string = "memory"
	KindSqlite string = "sqlite"
)

// Open builds the backend named by kind.
func Open(kind string, opts ...Option) (Store, error) {
	switch kind {
	case KindMemory:
		return NewMemoryStore(opts...), nil
	case KindSqlite:
		conn, err := db.Open(db.UseMemorySqliteDialector())
		if err != nil {
			return nil, err
		}
		return NewSQLStore(conn, opts...), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", kind)
	}
}
