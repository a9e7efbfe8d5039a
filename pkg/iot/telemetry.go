package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"
	"go.uber.org/zap"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
	"liyu1981.xyz/solar-telemetry-service/pkg/models"
)

var (
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNotTelemetry marks a well formed frame of another type, callers drop it.
	ErrNotTelemetry = errors.New("not a telemetry frame")
)

// ValidationError describes an inbound frame that cannot be ingested.
type ValidationError struct {
	Details []string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid telemetry: %v", e.Err)
	}
	return "invalid telemetry: " + strings.Join(e.Details, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TelemetryMessage is the inbound arduino_data frame. Pointer fields tell an
// absent value apart from an explicit zero.
type TelemetryMessage struct {
	Type              string   `json:"type"`
	DeviceID          *string  `json:"deviceId" zog:"deviceId"`
	Location          *string  `json:"location"`
	District          *string  `json:"district"`
	Power             *float64 `json:"power" zog:"power"`
	Voltage           *float64 `json:"voltage" zog:"voltage"`
	Current           *float64 `json:"current" zog:"current"`
	Irradiance        *float64 `json:"irradiance" zog:"irradiance"`
	Temperature       *float64 `json:"temperature"`
	PanelAngle        *float64 `json:"panelAngle"`
	SunlightIntensity *float64 `json:"sunlightIntensity"`
	Latitude          *float64 `json:"latitude" zog:"latitude"`
	Longitude         *float64 `json:"longitude" zog:"longitude"`
}

// Measurements only need to be present, 0 is a valid reading.
var telemetrySchema = z.Struct(z.Shape{
	"DeviceID":   z.Ptr(z.String().Required()).NotNil(),
	"Power":      z.Ptr(z.Float64()).NotNil(),
	"Voltage":    z.Ptr(z.Float64()).NotNil(),
	"Current":    z.Ptr(z.Float64()).NotNil(),
	"Irradiance": z.Ptr(z.Float64()).NotNil(),
	"Latitude":   z.Ptr(z.Float64().GTE(-90).LTE(90)),
	"Longitude":  z.Ptr(z.Float64().GTE(-180).LTE(180)),
})

// telemetryFields lists the checked fields in report order with the detail
// used when a present value is rejected.
var telemetryFields = []struct {
	name    string
	invalid string
}{
	{"deviceId", "must be a non-empty string"},
	{"power", "must be a number"},
	{"voltage", "must be a number"},
	{"current", "must be a number"},
	{"irradiance", "must be a number"},
	{"latitude", "must be between -90 and 90"},
	{"longitude", "must be between -180 and 180"},
}

func (m *TelemetryMessage) Validate() []string {
	issues := telemetrySchema.Validate(m)
	if issues == nil {
		return nil
	}

	var details []string
	for _, field := range telemetryFields {
		list := issues[field.name]
		if len(list) == 0 {
			continue
		}
		if list[0].Code == zconst.IssueCodeNotNil {
			details = append(details, field.name+": required")
		} else {
			details = append(details, field.name+": "+field.invalid)
		}
	}
	return details
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// Record maps a validated message onto the store's ingest unit. Absent
// optional metrics leave the installation's previous values in place.
func (m *TelemetryMessage) Record() models.TelemetryRecord {
	online := true
	location := stringOr(m.Location, models.DefaultLocation)

	return models.TelemetryRecord{
		Reading: models.NewReading{
			DeviceID:          *m.DeviceID,
			Location:          location,
			Power:             *m.Power,
			Voltage:           *m.Voltage,
			Current:           *m.Current,
			Irradiance:        *m.Irradiance,
			PanelAngle:        floatOr(m.PanelAngle, 0),
			SunlightIntensity: floatOr(m.SunlightIntensity, 0),
			Temperature:       m.Temperature,
		},
		Create: models.NewInstallation{
			DeviceID:          *m.DeviceID,
			Location:          location,
			District:          stringOr(m.District, models.DefaultDistrict),
			State:             models.DefaultState,
			Latitude:          floatOr(m.Latitude, models.DefaultLatitude),
			Longitude:         floatOr(m.Longitude, models.DefaultLongitude),
			CurrentPower:      *m.Power,
			Voltage:           *m.Voltage,
			Current:           *m.Current,
			Irradiance:        *m.Irradiance,
			PanelAngle:        floatOr(m.PanelAngle, 0),
			SunlightIntensity: floatOr(m.SunlightIntensity, 0),
			Status:            models.InstallationStatusActive,
			IsOnline:          true,
		},
		Patch: models.InstallationPatch{
			CurrentPower:      m.Power,
			Voltage:           m.Voltage,
			Current:           m.Current,
			Irradiance:        m.Irradiance,
			PanelAngle:        m.PanelAngle,
			SunlightIntensity: m.SunlightIntensity,
			IsOnline:          &online,
		},
	}
}

// ParseTelemetry decodes and validates one inbound frame. It returns
// ErrNotTelemetry for frames of another type and a *ValidationError for
// anything malformed.
func ParseTelemetry(raw []byte) (*TelemetryMessage, error) {
	var envelope struct {
		Type any `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &ValidationError{Details: []string{"malformed JSON"}, Err: err}
	}
	if t, ok := envelope.Type.(string); !ok || t != FrameTypeTelemetry {
		return nil, ErrNotTelemetry
	}

	var msg TelemetryMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Details: []string{fmt.Sprintf("%s: must be %s", typeErr.Field, typeErr.Type)}, Err: err}
		}
		return nil, &ValidationError{Details: []string{"malformed JSON"}, Err: err}
	}
	if details := msg.Validate(); len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}
	return &msg, nil
}

// TelemetryUpdate is the outcome of one accepted frame.
type TelemetryUpdate struct {
	Message *TelemetryMessage
	Result  *models.IngestResult
	// Frame is the encoded solar_data_update to send to the other peers.
	Frame []byte
}

func (i *IOT) ingest(ctx context.Context, raw []byte) (*TelemetryUpdate, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTTelemetry),
	)

	msg, err := ParseTelemetry(raw)
	if err != nil {
		return nil, err
	}
	deviceID := *msg.DeviceID

	if i.Limiter != nil && !i.Limiter.Allow(deviceID) {
		logger.Warn("Telemetry rate limited", zap.String("deviceId", deviceID))
		return nil, ErrRateLimited
	}

	result, err := i.Store.IngestTelemetry(ctx, msg.Record())
	if err != nil {
		logger.Error("Failed to store telemetry", zap.String("deviceId", deviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to ingest telemetry: %w", err)
	}

	if result.Created {
		logger.Info("Registered new installation from telemetry",
			zap.String("deviceId", deviceID),
			zap.String("installationId", result.Installation.ID),
		)
	}
	logger.Debug("Stored telemetry", zap.Reflect("reading", result.Reading))

	frame, err := DataUpdateFrame(raw, i.Clock())
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}

	return &TelemetryUpdate{Message: msg, Result: result, Frame: frame}, nil
}

type ITelemetryImpl struct {
	iot *IOT
}

func (it *ITelemetryImpl) Ingest(ctx context.Context, raw []byte) (*TelemetryUpdate, error) {
	return it.iot.ingest(ctx, raw)
}

func (i *IOT) GetITelemetry() ITelemetry {
	return &ITelemetryImpl{iot: i}
}
