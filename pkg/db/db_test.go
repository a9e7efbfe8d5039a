package db

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
	_ "liyu1981.xyz/solar-telemetry-service/pkg/testing"

	"gorm.io/gorm"
)

func tableExists(db *gorm.DB, tableName string) bool {
	var count int64
	err := db.Raw(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName,
	).Scan(&count).Error
	return err == nil && count > 0
}

func TestWithMemorySqlite(t *testing.T) {
	common.SetTestLoggerNop()

	instance, err := Open(UseMemorySqliteDialector())
	require.NoError(t, err)
	defer instance.Close()

	var tables = []string{"installations", "readings"}
	for _, table := range tables {
		if !tableExists(instance.Conn, table) {
			t.Errorf("Expected table %q to exist after migration", table)
		}
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	common.SetTestLoggerNop()

	first, err := Open(UseMemorySqliteDialector())
	require.NoError(t, err)
	defer first.Close()

	second, err := Open(UseMemorySqliteDialector())
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Conn.Create(&models.Reading{ID: "r1", DeviceID: "D1"}).Error)

	var count int64
	require.NoError(t, second.Conn.Model(&models.Reading{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, first.Conn.Model(&models.Reading{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeviceIDUnique(t *testing.T) {
	common.SetTestLoggerNop()

	instance, err := Open(UseMemorySqliteDialector())
	require.NoError(t, err)
	defer instance.Close()

	require.NoError(t, instance.Conn.Create(&models.Installation{ID: "a", DeviceID: "D1", Status: models.InstallationStatusActive}).Error)
	err = instance.Conn.Create(&models.Installation{ID: "b", DeviceID: "D1", Status: models.InstallationStatusActive}).Error
	require.Error(t, err, "UNIQUE constraint failed")
}

func TestOpenConcurrency(t *testing.T) {
	common.SetTestLoggerNop()

	const goroutineCount = 10

	var wg sync.WaitGroup
	instances := make(chan *DB, goroutineCount)

	for rep := 0; rep < goroutineCount; rep++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			instance, err := Open(UseMemorySqliteDialector())
			if err != nil {
				t.Error(err)
				return
			}
			instances <- instance
		}()
	}

	wg.Wait()
	close(instances)

	seen := map[*DB]bool{}
	for inst := range instances {
		if seen[inst] {
			t.Error("Expected every Open to return a distinct instance")
		}
		seen[inst] = true
		_ = inst.Close()
	}
	assert.Len(t, seen, goroutineCount)
}
