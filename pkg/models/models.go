package models

import (
	"time"
)

type InstallationStatus string

const (
	InstallationStatusActive      InstallationStatus = "active"
	InstallationStatusMaintenance InstallationStatus = "maintenance"
	InstallationStatusInactive    InstallationStatus = "inactive"
)

func (s InstallationStatus) Valid() bool {
	switch s {
	case InstallationStatusActive, InstallationStatusMaintenance, InstallationStatusInactive:
		return true
	}
	return false
}

const (
	DefaultState    string  = "Karnataka"
	DefaultLocation string  = "Arduino Device Location"
	DefaultDistrict string  = "Unknown District"
	DefaultLatitude float64 = 15.3173
	// DefaultLongitude together with DefaultLatitude is the centre of Karnataka.
	DefaultLongitude float64 = 75.7139
)

type Installation struct {
	ID                     string             `gorm:"primaryKey" json:"id"`
	DeviceID               string             `gorm:"uniqueIndex;not null" json:"deviceId"`
	Location               string             `gorm:"not null" json:"location"`
	District               string             `gorm:"index;not null" json:"district"`
	State                  string             `gorm:"index;not null;default:Karnataka" json:"state"`
	Latitude               float64            `json:"latitude"`
	Longitude              float64            `json:"longitude"`
	AnnualMoneySaved       float64            `json:"annualMoneySaved"`
	AnnualElectricitySaved float64            `json:"annualElectricitySaved"`
	AnnualSolarEnergyUsage float64            `json:"annualSolarEnergyUsage"`
	SurfaceArea            float64            `json:"surfaceArea"`
	CostPerSquareMeter     float64            `json:"costPerSquareMeter"`
	CurrentPower           float64            `json:"currentPower"`
	Voltage                float64            `json:"voltage"`
	Current                float64            `json:"current"`
	Irradiance             float64            `json:"irradiance"`
	PanelAngle             float64            `json:"panelAngle"`
	SunlightIntensity      float64            `json:"sunlightIntensity"`
	Status                 InstallationStatus `gorm:"type:varchar(20);check:status IN ('active','maintenance','inactive')" json:"status"`
	IsOnline               bool               `json:"isOnline"`
	LastUpdate             time.Time          `json:"lastUpdate"`
}

// NewInstallation carries the caller supplied fields of an Installation, the
// store assigns ID and LastUpdate.
type NewInstallation struct {
	DeviceID               string             `yaml:"deviceId"`
	Location               string             `yaml:"location"`
	District               string             `yaml:"district"`
	State                  string             `yaml:"state"`
	Latitude               float64            `yaml:"latitude"`
	Longitude              float64            `yaml:"longitude"`
	AnnualMoneySaved       float64            `yaml:"annualMoneySaved"`
	AnnualElectricitySaved float64            `yaml:"annualElectricitySaved"`
	AnnualSolarEnergyUsage float64            `yaml:"annualSolarEnergyUsage"`
	SurfaceArea            float64            `yaml:"surfaceArea"`
	CostPerSquareMeter     float64            `yaml:"costPerSquareMeter"`
	CurrentPower           float64            `yaml:"currentPower"`
	Voltage                float64            `yaml:"voltage"`
	Current                float64            `yaml:"current"`
	Irradiance             float64            `yaml:"irradiance"`
	PanelAngle             float64            `yaml:"panelAngle"`
	SunlightIntensity      float64            `yaml:"sunlightIntensity"`
	Status                 InstallationStatus `yaml:"status"`
	IsOnline               bool               `yaml:"isOnline"`
}

// InstallationPatch is a partial update, nil fields are left untouched.
type InstallationPatch struct {
	Location               *string
	District               *string
	State                  *string
	Latitude               *float64
	Longitude              *float64
	AnnualMoneySaved       *float64
	AnnualElectricitySaved *float64
	AnnualSolarEnergyUsage *float64
	SurfaceArea            *float64
	CostPerSquareMeter     *float64
	CurrentPower           *float64
	Voltage                *float64
	Current                *float64
	Irradiance             *float64
	PanelAngle             *float64
	SunlightIntensity      *float64
	Status                 *InstallationStatus
	IsOnline               *bool
}

func (in NewInstallation) ToInstallation(id string, now time.Time) Installation {
	state := in.State
	if state == "" {
		state = DefaultState
	}
	status := in.Status
	if status == "" {
		status = InstallationStatusActive
	}
	return Installation{
		ID:                     id,
		DeviceID:               in.DeviceID,
		Location:               in.Location,
		District:               in.District,
		State:                  state,
		Latitude:               in.Latitude,
		Longitude:              in.Longitude,
		AnnualMoneySaved:       in.AnnualMoneySaved,
		AnnualElectricitySaved: in.AnnualElectricitySaved,
		AnnualSolarEnergyUsage: in.AnnualSolarEnergyUsage,
		SurfaceArea:            in.SurfaceArea,
		CostPerSquareMeter:     in.CostPerSquareMeter,
		CurrentPower:           in.CurrentPower,
		Voltage:                in.Voltage,
		Current:                in.Current,
		Irradiance:             in.Irradiance,
		PanelAngle:             in.PanelAngle,
		SunlightIntensity:      in.SunlightIntensity,
		Status:                 status,
		IsOnline:               in.IsOnline,
		LastUpdate:             now,
	}
}

// Apply overwrites every provided field on inst and stamps LastUpdate.
func (p InstallationPatch) Apply(inst *Installation, now time.Time) {
	setIf(&inst.Location, p.Location)
	setIf(&inst.District, p.District)
	setIf(&inst.State, p.State)
	setIf(&inst.Latitude, p.Latitude)
	setIf(&inst.Longitude, p.Longitude)
	setIf(&inst.AnnualMoneySaved, p.AnnualMoneySaved)
	setIf(&inst.AnnualElectricitySaved, p.AnnualElectricitySaved)
	setIf(&inst.AnnualSolarEnergyUsage, p.AnnualSolarEnergyUsage)
	setIf(&inst.SurfaceArea, p.SurfaceArea)
	setIf(&inst.CostPerSquareMeter, p.CostPerSquareMeter)
	setIf(&inst.CurrentPower, p.CurrentPower)
	setIf(&inst.Voltage, p.Voltage)
	setIf(&inst.Current, p.Current)
	setIf(&inst.Irradiance, p.Irradiance)
	setIf(&inst.PanelAngle, p.PanelAngle)
	setIf(&inst.SunlightIntensity, p.SunlightIntensity)
	setIf(&inst.Status, p.Status)
	setIf(&inst.IsOnline, p.IsOnline)
	inst.LastUpdate = now
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type Reading struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	DeviceID          string    `gorm:"index;not null" json:"deviceId"`
	Timestamp         time.Time `gorm:"index" json:"timestamp"`
	Location          string    `json:"location"`
	Power             float64   `json:"power"`
	Voltage           float64   `json:"voltage"`
	Current           float64   `json:"current"`
	Irradiance        float64   `json:"irradiance"`
	PanelAngle        float64   `json:"panelAngle"`
	SunlightIntensity float64   `json:"sunlightIntensity"`
	Temperature       *float64  `json:"temperature"`
}

type NewReading struct {
	DeviceID          string
	Location          string
	Power             float64
	Voltage           float64
	Current           float64
	Irradiance        float64
	PanelAngle        float64
	SunlightIntensity float64
	Temperature       *float64
}

func (in NewReading) ToReading(id string, now time.Time) Reading {
	return Reading{
		ID:                id,
		DeviceID:          in.DeviceID,
		Timestamp:         now,
		Location:          in.Location,
		Power:             in.Power,
		Voltage:           in.Voltage,
		Current:           in.Current,
		Irradiance:        in.Irradiance,
		PanelAngle:        in.PanelAngle,
		SunlightIntensity: in.SunlightIntensity,
		Temperature:       in.Temperature,
	}
}

// TelemetryRecord is one validated device sample as the store ingests it: the
// reading to append, the installation to create if the device is unseen and
// the patch to apply if it is known.
type TelemetryRecord struct {
	Reading NewReading
	Create  NewInstallation
	Patch   InstallationPatch
}

type IngestResult struct {
	Reading      Reading
	Installation Installation
	Created      bool
}
