package store

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"
	"liyu1981.xyz/solar-telemetry-service/pkg/db"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

type SQLStore struct {
	db *db.DB
	// serialises find-or-create so two unseen-device messages cannot both
	// take the create branch
	mu   sync.Mutex
	opts options
}

func NewSQLStore(conn *db.DB, opts ...Option) *SQLStore {
	return &SQLStore{
		db:   conn,
		opts: newOptions(opts),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *SQLStore) conn(ctx context.Context) *gorm.DB {
	return s.db.Conn.WithContext(ctx)
}

func (s *SQLStore) CreateInstallation(ctx context.Context, in models.NewInstallation) (*models.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := in.ToInstallation(s.opts.newID(), s.opts.now())
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Installation{}).Where("device_id = ?", in.DeviceID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateDevice
		}
		return tx.Create(&inst).Error
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *SQLStore) UpdateInstallation(ctx context.Context, id string, patch models.InstallationPatch) (*models.Installation, error) {
	var inst models.Installation
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&inst, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		patch.Apply(&inst, s.opts.now())
		return tx.Save(&inst).Error
	})
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *SQLStore) GetInstallation(ctx context.Context, id string) (*models.Installation, error) {
	var inst models.Installation
	if err := s.conn(ctx).First(&inst, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

func (s *SQLStore) GetInstallationByDeviceID(ctx context.Context, deviceID string) (*models.Installation, error) {
	var inst models.Installation
	if err := s.conn(ctx).First(&inst, "device_id = ?", deviceID).Error; err != nil {
		return nil, notFound(err)
	}
	return &inst, nil
}

// rowid keeps insertion order, installation ids are random uuids.
func (s *SQLStore) findInstallations(ctx context.Context, query any, args ...any) ([]models.Installation, error) {
	installations := []models.Installation{}
	q := s.conn(ctx).Order("rowid")
	if query != nil {
		q = q.Where(query, args...)
	}
	err := q.Find(&installations).Error
	return installations, err
}

func (s *SQLStore) GetInstallationsByDistrict(ctx context.Context, district string) ([]models.Installation, error) {
	return s.findInstallations(ctx, "district = ?", district)
}

func (s *SQLStore) GetInstallationsByState(ctx context.Context, state string) ([]models.Installation, error) {
	return s.findInstallations(ctx, "state = ?", state)
}

func (s *SQLStore) GetAllInstallations(ctx context.Context) ([]models.Installation, error) {
	return s.findInstallations(ctx, nil)
}

func (s *SQLStore) AddReading(ctx context.Context, in models.NewReading) (*models.Reading, error) {
	reading := in.ToReading(s.opts.newID(), s.opts.now())
	if err := s.conn(ctx).Create(&reading).Error; err != nil {
		return nil, err
	}
	return &reading, nil
}

func (s *SQLStore) latest(ctx context.Context, limit int, query any, args ...any) ([]models.Reading, error) {
	readings := []models.Reading{}
	if limit <= 0 {
		return readings, nil
	}
	q := s.conn(ctx).Order("timestamp desc").Order("rowid desc").Limit(limit)
	if query != nil {
		q = q.Where(query, args...)
	}
	err := q.Find(&readings).Error
	return readings, err
}

func (s *SQLStore) GetReadingsByDeviceID(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	return s.latest(ctx, limit, "device_id = ?", deviceID)
}

func (s *SQLStore) GetLatestReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	return s.latest(ctx, limit, nil)
}

func (s *SQLStore) upsertTx(tx *gorm.DB, deviceID string, create models.NewInstallation, patch models.InstallationPatch) (models.Installation, bool, error) {
	var inst models.Installation
	err := tx.First(&inst, "device_id = ?", deviceID).Error
	switch {
	case err == nil:
		patch.Apply(&inst, s.opts.now())
		return inst, false, tx.Save(&inst).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		create.DeviceID = deviceID
		inst = create.ToInstallation(s.opts.newID(), s.opts.now())
		return inst, true, tx.Create(&inst).Error
	default:
		return inst, false, err
	}
}

func (s *SQLStore) UpsertInstallationByDeviceID(ctx context.Context, deviceID string, create models.NewInstallation, patch models.InstallationPatch) (*models.Installation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inst models.Installation
	var created bool
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inst, created, err = s.upsertTx(tx, deviceID, create, patch)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return &inst, created, nil
}

func (s *SQLStore) IngestTelemetry(ctx context.Context, rec models.TelemetryRecord) (*models.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := &models.IngestResult{}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		result.Reading = rec.Reading.ToReading(s.opts.newID(), s.opts.now())
		if err := tx.Create(&result.Reading).Error; err != nil {
			return err
		}
		var err error
		result.Installation, result.Created, err = s.upsertTx(tx, rec.Reading.DeviceID, rec.Create, rec.Patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLStore) Counts(ctx context.Context) (int, int, error) {
	var installations, readings int64
	if err := s.conn(ctx).Model(&models.Installation{}).Count(&installations).Error; err != nil {
		return 0, 0, err
	}
	if err := s.conn(ctx).Model(&models.Reading{}).Count(&readings).Error; err != nil {
		return 0, 0, err
	}
	return int(installations), int(readings), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
