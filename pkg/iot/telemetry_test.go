package iot

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
	_ "liyu1981.xyz/solar-telemetry-service/pkg/testing"
)

func TestParseTelemetry(t *testing.T) {
	msg, err := ParseTelemetry([]byte(`{"type":"arduino_data","deviceId":"D1","power":150,"voltage":12.5,"current":12,"irradiance":800,"temperature":31}`))
	require.NoError(t, err)
	assert.Equal(t, "D1", *msg.DeviceID)
	assert.Equal(t, 150.0, *msg.Power)
	require.NotNil(t, msg.Temperature)
	assert.Equal(t, 31.0, *msg.Temperature)
	assert.Nil(t, msg.PanelAngle)
}

func TestParseTelemetry_ZeroMeasurements(t *testing.T) {
	msg, err := ParseTelemetry([]byte(`{"type":"arduino_data","deviceId":"D1","power":0,"voltage":24,"current":0,"irradiance":0,"latitude":0,"longitude":0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *msg.Power)
	assert.Equal(t, 0.0, *msg.Current)
	assert.Equal(t, 0.0, *msg.Irradiance)
	assert.Equal(t, 0.0, *msg.Latitude)
}

func TestParseTelemetry_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		detail string
	}{
		{"not json", `{"type":`, "malformed JSON"},
		{"missing power", `{"type":"arduino_data","deviceId":"D1","voltage":1,"current":1,"irradiance":1}`, "power: required"},
		{"null power", `{"type":"arduino_data","deviceId":"D1","power":null,"voltage":1,"current":1,"irradiance":1}`, "power: required"},
		{"missing device", `{"type":"arduino_data","power":1,"voltage":1,"current":1,"irradiance":1}`, "deviceId: required"},
		{"empty device", `{"type":"arduino_data","deviceId":"","power":1,"voltage":1,"current":1,"irradiance":1}`, "deviceId: must be a non-empty string"},
		{"numeric device", `{"type":"arduino_data","deviceId":7,"power":1,"voltage":1,"current":1,"irradiance":1}`, "deviceId: must be string"},
		{"string power", `{"type":"arduino_data","deviceId":"D1","power":"high","voltage":1,"current":1,"irradiance":1}`, "power: must be float64"},
		{"latitude range", `{"type":"arduino_data","deviceId":"D1","power":1,"voltage":1,"current":1,"irradiance":1,"latitude":91}`, "latitude: must be between -90 and 90"},
		{"longitude range", `{"type":"arduino_data","deviceId":"D1","power":1,"voltage":1,"current":1,"irradiance":1,"longitude":-181}`, "longitude: must be between -180 and 180"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTelemetry([]byte(tc.raw))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Details, tc.detail)
		})
	}
}

func TestParseTelemetry_OtherTypes(t *testing.T) {
	for _, raw := range []string{`{"type":"ping"}`, `{"deviceId":"D1"}`, `{"type":5}`, `null`} {
		_, err := ParseTelemetry([]byte(raw))
		assert.ErrorIs(t, err, ErrNotTelemetry, raw)
	}
}

func TestIngest_CreatesInstallationWithDefaults(t *testing.T) {
	for _, kind := range []string{store.KindMemory, store.KindSqlite} {
		t.Run(kind, func(t *testing.T) {
			common.SetTestLoggerNop()
			iotObj, _ := GetTestIOT(t, kind, nil)
			ctx := context.Background()

			raw := []byte(`{"type":"arduino_data","deviceId":"D9","power":150,"voltage":12.5,"current":12,"irradiance":800}`)
			update, err := iotObj.Telemetry.Ingest(ctx, raw)
			require.NoError(t, err)
			assert.True(t, update.Result.Created)

			inst, err := iotObj.Installation.GetInstallationByDeviceID(ctx, "D9")
			require.NoError(t, err)
			assert.Equal(t, models.DefaultLocation, inst.Location)
			assert.Equal(t, models.DefaultDistrict, inst.District)
			assert.Equal(t, models.DefaultState, inst.State)
			assert.Equal(t, models.DefaultLatitude, inst.Latitude)
			assert.Equal(t, models.DefaultLongitude, inst.Longitude)
			assert.Equal(t, 150.0, inst.CurrentPower)
			assert.Equal(t, 0.0, inst.AnnualMoneySaved)
			assert.Equal(t, 0.0, inst.SurfaceArea)
			assert.Equal(t, models.InstallationStatusActive, inst.Status)
			assert.True(t, inst.IsOnline)

			readings, err := iotObj.Reading.DeviceReadings(ctx, "D9", 10)
			require.NoError(t, err)
			require.Len(t, readings, 1)
			assert.Equal(t, 150.0, readings[0].Power)
			assert.Nil(t, readings[0].Temperature)
		})
	}
}

func TestIngest_ZeroMeasurementsAreStored(t *testing.T) {
	for _, kind := range []string{store.KindMemory, store.KindSqlite} {
		t.Run(kind, func(t *testing.T) {
			common.SetTestLoggerNop()
			iotObj, _ := GetTestIOT(t, kind, nil)
			ctx := context.Background()

			_, err := iotObj.Telemetry.Ingest(ctx, []byte(`{"type":"arduino_data","deviceId":"KA-NIGHT-1","power":150,"voltage":24,"current":6.25,"irradiance":800}`))
			require.NoError(t, err)

			// after sunset the panel reports zeros
			update, err := iotObj.Telemetry.Ingest(ctx, []byte(`{"type":"arduino_data","deviceId":"KA-NIGHT-1","power":0.0,"voltage":24,"current":0,"irradiance":0}`))
			require.NoError(t, err)
			assert.False(t, update.Result.Created)

			inst, err := iotObj.Installation.GetInstallationByDeviceID(ctx, "KA-NIGHT-1")
			require.NoError(t, err)
			assert.Equal(t, 0.0, inst.CurrentPower)
			assert.Equal(t, 0.0, inst.Current)
			assert.Equal(t, 0.0, inst.Irradiance)
			assert.True(t, inst.IsOnline)

			installations, readings, err := iotObj.Store.Counts(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, installations)
			assert.Equal(t, 2, readings)
		})
	}
}

func TestIngest_UpdatesKnownInstallation(t *testing.T) {
	common.SetTestLoggerNop()
	iotObj, clock := GetTestIOT(t, store.KindMemory, nil)
	ctx := context.Background()

	seeded, err := iotObj.Store.CreateInstallation(ctx, models.NewInstallation{
		DeviceID:         "D1",
		Location:         "Mysuru Rooftop",
		District:         "Mysuru",
		AnnualMoneySaved: 4800,
		PanelAngle:       30,
	})
	require.NoError(t, err)

	clock.Advance(5 * time.Second)
	update, err := iotObj.Telemetry.Ingest(ctx, []byte(`{"type":"arduino_data","deviceId":"D1","power":210,"voltage":13,"current":16,"irradiance":900,"sunlightIntensity":75}`))
	require.NoError(t, err)
	assert.False(t, update.Result.Created)

	inst, err := iotObj.Installation.GetInstallation(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 210.0, inst.CurrentPower)
	assert.Equal(t, 13.0, inst.Voltage)
	assert.Equal(t, 75.0, inst.SunlightIntensity)
	assert.Equal(t, 30.0, inst.PanelAngle, "absent panelAngle keeps the previous value")
	assert.Equal(t, "Mysuru Rooftop", inst.Location)
	assert.Equal(t, 4800.0, inst.AnnualMoneySaved)
	assert.True(t, inst.IsOnline)
	assert.True(t, inst.LastUpdate.After(seeded.LastUpdate))

	all, err := iotObj.Installation.ListInstallations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIngest_InvalidFrameMutatesNothing(t *testing.T) {
	common.SetTestLoggerNop()
	iotObj, _ := GetTestIOT(t, store.KindMemory, nil)
	ctx := context.Background()

	_, err := iotObj.Telemetry.Ingest(ctx, []byte(`{"type":"arduino_data","deviceId":"D1","voltage":12,"current":1,"irradiance":1}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	installations, readings, err := iotObj.Store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, installations)
	assert.Zero(t, readings)
}

func TestIngest_RateLimited(t *testing.T) {
	common.SetTestLoggerNop()
	iotObj, _ := GetTestIOT(t, store.KindMemory, NewRateLimiterStore(0.001, 1))
	ctx := context.Background()

	raw := []byte(`{"type":"arduino_data","deviceId":"D1","power":1,"voltage":1,"current":1,"irradiance":1}`)
	_, err := iotObj.Telemetry.Ingest(ctx, raw)
	require.NoError(t, err)

	_, err = iotObj.Telemetry.Ingest(ctx, raw)
	assert.ErrorIs(t, err, ErrRateLimited)

	_, readings, err := iotObj.Store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, readings)
}

func TestIngest_StoreFailure(t *testing.T) {
	common.SetTestLoggerNop()
	iotObj, _ := GetTestIOT(t, store.KindMemory, nil)
	require.NoError(t, iotObj.Store.Close())

	_, err := iotObj.Telemetry.Ingest(context.Background(), []byte(`{"type":"arduino_data","deviceId":"D1","power":1,"voltage":1,"current":1,"irradiance":1}`))
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestIngest_UpdateFrame(t *testing.T) {
	common.SetTestLoggerNop()
	iotObj, _ := GetTestIOT(t, store.KindMemory, nil)

	raw := `{"type":"arduino_data","deviceId":"D1","power":1,"voltage":2,"current":3,"irradiance":4,"custom":"kept"}`
	update, err := iotObj.Telemetry.Ingest(context.Background(), []byte(raw))
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(update.Frame, &frame))
	assert.Equal(t, FrameTypeDataUpdate, frame["type"])
	assert.Equal(t, "2024-06-01T08:00:00.000Z", frame["timestamp"])

	data, ok := frame["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "D1", data["deviceId"])
	assert.Equal(t, "kept", data["custom"])
}

func TestIngest_LogsNewInstallation(t *testing.T) {
	var buf bytes.Buffer
	common.SetTestCaptureLogger(&buf, zapcore.InfoLevel)
	defer common.SetTestLoggerNop()

	iotObj, _ := GetTestIOT(t, store.KindMemory, nil)
	_, err := iotObj.Telemetry.Ingest(context.Background(), []byte(`{"type":"arduino_data","deviceId":"D7","power":1,"voltage":1,"current":1,"irradiance":1}`))
	require.NoError(t, err)

	found := false
	for _, entry := range ParseLogs(&buf) {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if fields["msg"] == "Registered new installation from telemetry" {
			found = true
			assert.Equal(t, "D7", fields["deviceId"])
			assert.Equal(t, common.LoggerCategoryIOTTelemetry, fields[common.LoggerFieldIOTCategory])
		}
	}
	assert.True(t, found)
}
