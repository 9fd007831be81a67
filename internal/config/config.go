package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	// External schedule store. Empty means availability is answered from
	// the local bookings table.
	AvailabilityURL     string        `mapstructure:"AVAILABILITY_URL"`
	AvailabilityRetries int           `mapstructure:"AVAILABILITY_RETRIES"`
	AvailabilityBackoff time.Duration `mapstructure:"AVAILABILITY_BACKOFF"`

	// Scheduling policy knobs.
	SameDayExclusive bool          `mapstructure:"SAME_DAY_EXCLUSIVE"`
	PerJobTimeout    time.Duration `mapstructure:"PER_JOB_TIMEOUT"`

	// Nominatim geocoding for job intake rows without coordinates.
	GeocodeURL     string `mapstructure:"GEOCODE_URL"`
	CountryDefault string `mapstructure:"COUNTRY_DEFAULT"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("AVAILABILITY_RETRIES", 3)
	v.SetDefault("AVAILABILITY_BACKOFF", "200ms")
	v.SetDefault("SAME_DAY_EXCLUSIVE", true)
	v.SetDefault("PER_JOB_TIMEOUT", "5s")
	v.SetDefault("COUNTRY_DEFAULT", "Sweden")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
