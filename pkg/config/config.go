package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"liyu1981.xyz/solar-telemetry-service/pkg/common"
)

const (
	DBTypeMemory string = "memory"
	DBTypeSqlite string = "sqlite"
)

type Config struct {
	GoEnv string

	DBType string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	SeedFile     string
	OfflineAfter time.Duration
	WsReadLimit  int64

	MqttBroker   string
	MqttTopic    string
	MqttClientID string

	OpenWeatherAPIKey string
	GoogleSolarAPIKey string
}

// LimiterEnabled reports whether per-device telemetry rate limiting is on.
func (c *Config) LimiterEnabled() bool {
	return c.DefaultRate > 0 && c.DefaultBurst > 0
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(common.EnvKeyGoEnv, "development")
	v.SetDefault(common.EnvKeyIOTDBType, DBTypeMemory)
	v.SetDefault(common.EnvKeyIOTHttpHostPort, ":1080")
	v.SetDefault(common.EnvKeyIOTGrpcHostPort, "")
	v.SetDefault(common.EnvKeyIOTDefaultRate, 0)
	v.SetDefault(common.EnvKeyIOTDefaultBurst, 0)
	v.SetDefault(common.EnvKeyIOTSeedFile, "")
	v.SetDefault(common.EnvKeyIOTOfflineAfter, "0s")
	v.SetDefault(common.EnvKeyIOTWsReadLimit, 64*1024)
	v.SetDefault(common.EnvKeyIOTMqttBroker, "")
	v.SetDefault(common.EnvKeyIOTMqttTopic, "solar/telemetry")
	v.SetDefault(common.EnvKeyIOTMqttClientID, "solar-telemetry-service")
	v.SetDefault(common.EnvKeyOpenWeatherAPIKey, "")
	v.SetDefault(common.EnvKeyGoogleSolarAPIKey, "")
}

// Load reads the given .env files (".env" when none given) into the process
// environment and resolves the configuration from it. A missing default .env
// is not an error, an explicitly named file is.
func Load(envFiles ...string) (*Config, error) {
	explicit := len(envFiles) > 0
	if !explicit {
		envFiles = []string{".env"}
	}

	if err := godotenv.Load(envFiles...); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading env files %v: %w", envFiles, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		GoEnv:             v.GetString(common.EnvKeyGoEnv),
		DBType:            strings.ToLower(strings.TrimSpace(v.GetString(common.EnvKeyIOTDBType))),
		HttpHostPort:      strings.TrimSpace(v.GetString(common.EnvKeyIOTHttpHostPort)),
		GrpcHostPort:      strings.TrimSpace(v.GetString(common.EnvKeyIOTGrpcHostPort)),
		DefaultRate:       v.GetFloat64(common.EnvKeyIOTDefaultRate),
		DefaultBurst:      v.GetInt(common.EnvKeyIOTDefaultBurst),
		SeedFile:          strings.TrimSpace(v.GetString(common.EnvKeyIOTSeedFile)),
		OfflineAfter:      v.GetDuration(common.EnvKeyIOTOfflineAfter),
		WsReadLimit:       v.GetInt64(common.EnvKeyIOTWsReadLimit),
		MqttBroker:        strings.TrimSpace(v.GetString(common.EnvKeyIOTMqttBroker)),
		MqttTopic:         strings.TrimSpace(v.GetString(common.EnvKeyIOTMqttTopic)),
		MqttClientID:      strings.TrimSpace(v.GetString(common.EnvKeyIOTMqttClientID)),
		OpenWeatherAPIKey: strings.TrimSpace(v.GetString(common.EnvKeyOpenWeatherAPIKey)),
		GoogleSolarAPIKey: strings.TrimSpace(v.GetString(common.EnvKeyGoogleSolarAPIKey)),
	}

	if cfg.HttpHostPort == "" {
		// fallback to default http port
		cfg.HttpHostPort = ":1080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBType {
	case DBTypeMemory, DBTypeSqlite:
	default:
		return fmt.Errorf("unknown %s: %q, should be %q or %q", common.EnvKeyIOTDBType, c.DBType, DBTypeMemory, DBTypeSqlite)
	}
	if c.DefaultRate < 0 {
		return fmt.Errorf("invalid %s: %v, should be >= 0", common.EnvKeyIOTDefaultRate, c.DefaultRate)
	}
	if c.DefaultBurst < 0 {
		return fmt.Errorf("invalid %s: %v, should be >= 0", common.EnvKeyIOTDefaultBurst, c.DefaultBurst)
	}
	if c.OfflineAfter < 0 {
		return fmt.Errorf("invalid %s: %v, should be >= 0", common.EnvKeyIOTOfflineAfter, c.OfflineAfter)
	}
	if c.WsReadLimit < 0 {
		return fmt.Errorf("invalid %s: %v, should be >= 0", common.EnvKeyIOTWsReadLimit, c.WsReadLimit)
	}
	return nil
}
