package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Policy        PolicyConfig        `mapstructure:"policy"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

// PolicyConfig carries tenant-tunable attendance and leave policy. These were
// business constants scattered through the old PHP handlers; every service
// receives them from here instead of hardcoding.
type PolicyConfig struct {
	GeofenceRadiusMeters       float64         `mapstructure:"geofence_radius_meters"`
	LateThresholdMinutes       int             `mapstructure:"late_threshold_minutes"`
	ShortLeaveThresholdMinutes int             `mapstructure:"short_leave_threshold_minutes"`
	DefaultGraceMinutes        int             `mapstructure:"default_grace_minutes"`
	MonthlyAutoCredit          float64         `mapstructure:"monthly_auto_credit"`
	LateBands                  []DeductionBand `mapstructure:"late_bands"`
	ShortLeaveBands            []DeductionBand `mapstructure:"short_leave_bands"`
}

// DeductionBand maps excess minutes up to UpToMinutes (inclusive) onto a
// fractional leave deduction. A band with UpToMinutes == 0 is open-ended.
type DeductionBand struct {
	UpToMinutes int     `mapstructure:"upto_minutes"`
	Units       float64 `mapstructure:"units"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables only, for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Source:          getEnv("DATABASE_URL", ""),
		},
		Policy: PolicyConfig{
			GeofenceRadiusMeters:       getEnvAsFloat("POLICY_GEOFENCE_RADIUS_METERS", 200),
			LateThresholdMinutes:       getEnvAsInt("POLICY_LATE_THRESHOLD_MINUTES", 31),
			ShortLeaveThresholdMinutes: getEnvAsInt("POLICY_SHORT_LEAVE_THRESHOLD_MINUTES", 90),
			DefaultGraceMinutes:        getEnvAsInt("POLICY_DEFAULT_GRACE_MINUTES", 10),
			MonthlyAutoCredit:          getEnvAsFloat("POLICY_MONTHLY_AUTO_CREDIT", 1.5),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("policy config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *PolicyConfig) Validate() error {
	if c.GeofenceRadiusMeters <= 0 {
		return errors.New("geofence_radius_meters must be positive")
	}
	if c.LateThresholdMinutes <= 0 {
		return errors.New("late_threshold_minutes must be positive")
	}
	if c.ShortLeaveThresholdMinutes <= 0 {
		return errors.New("short_leave_threshold_minutes must be positive")
	}
	if c.MonthlyAutoCredit < 0 {
		return errors.New("monthly_auto_credit cannot be negative")
	}
	for _, b := range c.LateBands {
		if b.Units < 0 {
			return errors.New("late_bands units cannot be negative")
		}
	}
	for _, b := range c.ShortLeaveBands {
		if b.Units < 0 {
			return errors.New("short_leave_bands units cannot be negative")
		}
	}
	return nil
}
