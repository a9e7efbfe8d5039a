package store

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

type MemoryStore struct {
	mu sync.RWMutex

	installations map[string]*models.Installation
	byDevice      map[string]string // deviceId -> installation id
	order         []string          // installation ids in insertion order
	readings      []models.Reading  // insertion order

	closed bool
	opts   options
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		installations: make(map[string]*models.Installation),
		byDevice:      make(map[string]string),
		opts:          newOptions(opts),
	}
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) createLocked(in models.NewInstallation) *models.Installation {
	inst := in.ToInstallation(s.opts.newID(), s.opts.now())
	s.installations[inst.ID] = &inst
	s.byDevice[inst.DeviceID] = inst.ID
	s.order = append(s.order, inst.ID)
	return &inst
}

func (s *MemoryStore) CreateInstallation(ctx context.Context, in models.NewInstallation) (*models.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if _, ok := s.byDevice[in.DeviceID]; ok {
		return nil, ErrDuplicateDevice
	}
	inst := *s.createLocked(in)
	return &inst, nil
}

func (s *MemoryStore) UpdateInstallation(ctx context.Context, id string, patch models.InstallationPatch) (*models.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	inst, ok := s.installations[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(inst, s.opts.now())
	out := *inst
	return &out, nil
}

func (s *MemoryStore) GetInstallation(ctx context.Context, id string) (*models.Installation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	inst, ok := s.installations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *inst
	return &out, nil
}

func (s *MemoryStore) GetInstallationByDeviceID(ctx context.Context, deviceID string) (*models.Installation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	id, ok := s.byDevice[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.installations[id]
	return &out, nil
}

func (s *MemoryStore) snapshotLocked() []models.Installation {
	return lo.Map(s.order, func(id string, _ int) models.Installation {
		return *s.installations[id]
	})
}

func (s *MemoryStore) filter(ctx context.Context, keep func(models.Installation) bool) ([]models.Installation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return lo.Filter(s.snapshotLocked(), func(inst models.Installation, _ int) bool {
		return keep(inst)
	}), nil
}

func (s *MemoryStore) GetInstallationsByDistrict(ctx context.Context, district string) ([]models.Installation, error) {
	return s.filter(ctx, func(inst models.Installation) bool { return inst.District == district })
}

func (s *MemoryStore) GetInstallationsByState(ctx context.Context, state string) ([]models.Installation, error) {
	return s.filter(ctx, func(inst models.Installation) bool { return inst.State == state })
}

func (s *MemoryStore) GetAllInstallations(ctx context.Context) ([]models.Installation, error) {
	return s.filter(ctx, func(models.Installation) bool { return true })
}

func (s *MemoryStore) addReadingLocked(in models.NewReading) models.Reading {
	reading := in.ToReading(s.opts.newID(), s.opts.now())
	s.readings = append(s.readings, reading)
	return reading
}

func (s *MemoryStore) AddReading(ctx context.Context, in models.NewReading) (*models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	reading := s.addReadingLocked(in)
	return &reading, nil
}

// latest walks readings newest insert first so the stable sort keeps the most
// recent insert ahead on equal timestamps.
func (s *MemoryStore) latest(ctx context.Context, limit int, keep func(models.Reading) bool) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []models.Reading{}, nil
	}

	out := make([]models.Reading, 0, min(limit, len(s.readings)))
	for i := len(s.readings) - 1; i >= 0; i-- {
		if keep(s.readings[i]) {
			out = append(out, s.readings[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reading) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) GetReadingsByDeviceID(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	return s.latest(ctx, limit, func(r models.Reading) bool { return r.DeviceID == deviceID })
}

func (s *MemoryStore) GetLatestReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	return s.latest(ctx, limit, func(models.Reading) bool { return true })
}

func (s *MemoryStore) upsertLocked(deviceID string, create models.NewInstallation, patch models.InstallationPatch) (models.Installation, bool) {
	if id, ok := s.byDevice[deviceID]; ok {
		inst := s.installations[id]
		patch.Apply(inst, s.opts.now())
		return *inst, false
	}
	create.DeviceID = deviceID
	return *s.createLocked(create), true
}

func (s *MemoryStore) UpsertInstallationByDeviceID(ctx context.Context, deviceID string, create models.NewInstallation, patch models.InstallationPatch) (*models.Installation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, false, err
	}
	inst, created := s.upsertLocked(deviceID, create, patch)
	return &inst, created, nil
}

func (s *MemoryStore) IngestTelemetry(ctx context.Context, rec models.TelemetryRecord) (*models.IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}
	reading := s.addReadingLocked(rec.Reading)
	inst, created := s.upsertLocked(rec.Reading.DeviceID, rec.Create, rec.Patch)
	return &models.IngestResult{Reading: reading, Installation: inst, Created: created}, nil
}

func (s *MemoryStore) Counts(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return 0, 0, err
	}
	return len(s.installations), len(s.readings), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
