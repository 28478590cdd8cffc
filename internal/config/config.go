// Package config loads run settings from defaults, an optional config file,
// COLLIDE_* environment variables and command-line flags, in increasing
// priority.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/analysis"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/auth"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/propagation"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/tle"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/trajectory"
	"github.com/Pawan1724/Satellite-Collision-Prediction/internal/transform"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to environment variable names; "." in keys becomes "_".
const EnvPrefix = "COLLIDE"

// Config is the full set of recognised options.
type Config struct {
	ThresholdKm    float64 `mapstructure:"collision_threshold_km"`
	Steps          int     `mapstructure:"propagation_steps"`
	StepMinutes    int     `mapstructure:"step_minutes"`
	MaxCatalogSize int     `mapstructure:"max_catalog_size"`
	Workers        int     `mapstructure:"workers"`
	Frame          string  `mapstructure:"frame"`
	LogLevel       string  `mapstructure:"log_level"`

	Candidate CandidateConfig `mapstructure:"candidate"`
	Limits    Limits          `mapstructure:"limits"`
	TLE       TLEConfig       `mapstructure:"tle"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// CandidateConfig describes the default candidate.
type CandidateConfig struct {
	Name         string  `mapstructure:"name"`
	Variant      string  `mapstructure:"variant"`
	RadiusKm     float64 `mapstructure:"radius_km"`
	ZAmplitudeKm float64 `mapstructure:"z_amplitude_km"`
	XKm          float64 `mapstructure:"x_km"`
	YKm          float64 `mapstructure:"y_km"`
	ZKm          float64 `mapstructure:"z_km"`
}

// Limits bounds the parametric-orbit candidate inputs.
type Limits struct {
	RadiusMinKm     float64 `mapstructure:"radius_min_km"`
	RadiusMaxKm     float64 `mapstructure:"radius_max_km"`
	ZAmplitudeMinKm float64 `mapstructure:"z_amplitude_min_km"`
	ZAmplitudeMaxKm float64 `mapstructure:"z_amplitude_max_km"`
}

// TLEConfig selects the element data source.
type TLEConfig struct {
	File        string        `mapstructure:"file"`
	SourceURL   string        `mapstructure:"source_url"`
	ExtraURLs   []string      `mapstructure:"extra_urls"`
	CacheDir    string        `mapstructure:"cache_dir"`
	MaxFiles    int           `mapstructure:"max_files"`
	MaxAge      time.Duration `mapstructure:"max_age"`
	EnableFetch bool          `mapstructure:"enable_fetch"`
}

// HTTPConfig configures the service binary.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ScreenRate      float64       `mapstructure:"screen_rate"`
	ScreenBurst     int           `mapstructure:"screen_burst"`
	TrustProxy      bool          `mapstructure:"trust_proxy"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// AuthConfig guards mutating endpoints.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("collision_threshold_km", 5.0)
	v.SetDefault("propagation_steps", 144)
	v.SetDefault("step_minutes", 10)
	v.SetDefault("max_catalog_size", 20)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("frame", string(transform.FrameTEME))
	v.SetDefault("log_level", "info")

	v.SetDefault("candidate.name", "NEW_SAT")
	v.SetDefault("candidate.variant", string(trajectory.VariantOrbit))
	v.SetDefault("candidate.radius_km", 7050.0)
	v.SetDefault("candidate.z_amplitude_km", 500.0)
	v.SetDefault("candidate.x_km", 0.0)
	v.SetDefault("candidate.y_km", 0.0)
	v.SetDefault("candidate.z_km", 0.0)

	v.SetDefault("limits.radius_min_km", 6000.0)
	v.SetDefault("limits.radius_max_km", 8000.0)
	v.SetDefault("limits.z_amplitude_min_km", 0.0)
	v.SetDefault("limits.z_amplitude_max_km", 1000.0)

	v.SetDefault("tle.file", "")
	v.SetDefault("tle.source_url", tle.DefaultSourceURL)
	v.SetDefault("tle.extra_urls", []string{})
	v.SetDefault("tle.cache_dir", "/tmp/collide/tle")
	v.SetDefault("tle.max_files", 5)
	v.SetDefault("tle.max_age", "24h")
	v.SetDefault("tle.enable_fetch", true)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.screen_rate", 2.0)
	v.SetDefault("http.screen_burst", 4)
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("http.refresh_interval", "1h")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")
}

// New returns a viper instance carrying the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. file may be empty; its format follows the
// extension (yaml, json, toml). flags may be nil; flag names match keys.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := New()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks run-wide settings and the default candidate.
func (c *Config) Validate() error {
	var errs []error
	if math.IsNaN(c.ThresholdKm) || c.ThresholdKm < 0 {
		errs = append(errs, fmt.Errorf("collision_threshold_km must be >= 0, got %v", c.ThresholdKm))
	}
	if c.Steps < 1 {
		errs = append(errs, fmt.Errorf("propagation_steps must be >= 1, got %d", c.Steps))
	}
	if c.StepMinutes < 1 {
		errs = append(errs, fmt.Errorf("step_minutes must be >= 1, got %d", c.StepMinutes))
	}
	if c.MaxCatalogSize < 1 {
		errs = append(errs, fmt.Errorf("max_catalog_size must be >= 1, got %d", c.MaxCatalogSize))
	}
	if _, err := transform.ParseFrame(c.Frame); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.TLE.File == "" && c.TLE.EnableFetch && c.TLE.SourceURL == "" {
		errs = append(errs, errors.New("tle.source_url is required when fetching"))
	}
	if c.TLE.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("tle.max_age must be >= 0, got %s", c.TLE.MaxAge))
	}
	if c.HTTP.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("http.refresh_interval must be > 0, got %s", c.HTTP.RefreshInterval))
	}
	if c.HTTP.ScreenRate <= 0 || c.HTTP.ScreenBurst < 1 {
		errs = append(errs, fmt.Errorf("http.screen_rate must be > 0 and http.screen_burst >= 1, got %v/%d", c.HTTP.ScreenRate, c.HTTP.ScreenBurst))
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		errs = append(errs, errors.New("auth.token is required when auth is enabled"))
	}
	if err := ValidateCandidate(c.CandidateSpec(), c.Limits); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// ValidateCandidate applies the input rules the synthesizer relies on.
func ValidateCandidate(c trajectory.Candidate, l Limits) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: candidate name is empty", ErrInvalid)
	}
	switch c.Variant {
	case trajectory.VariantOrbit:
		if !inRange(c.RadiusKm, l.RadiusMinKm, l.RadiusMaxKm) {
			return fmt.Errorf("%w: radius_km %v outside [%v, %v]", ErrInvalid, c.RadiusKm, l.RadiusMinKm, l.RadiusMaxKm)
		}
		if !inRange(c.ZAmplitudeKm, l.ZAmplitudeMinKm, l.ZAmplitudeMaxKm) {
			return fmt.Errorf("%w: z_amplitude_km %v outside [%v, %v]", ErrInvalid, c.ZAmplitudeKm, l.ZAmplitudeMinKm, l.ZAmplitudeMaxKm)
		}
	case trajectory.VariantFixed:
		for _, x := range [...]float64{c.Point.X, c.Point.Y, c.Point.Z} {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: fixed point must be finite", ErrInvalid)
			}
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalid, trajectory.ErrUnknownVariant, c.Variant)
	}
	return nil
}

// NaN fails both comparisons.
func inRange(x, lo, hi float64) bool {
	return x >= lo && x <= hi
}

// Step returns the grid step.
func (c *Config) Step() time.Duration {
	return time.Duration(c.StepMinutes) * time.Minute
}

// CandidateSpec converts the configured candidate.
func (c *Config) CandidateSpec() trajectory.Candidate {
	return trajectory.Candidate{
		Name:         c.Candidate.Name,
		Variant:      trajectory.Variant(c.Candidate.Variant),
		RadiusKm:     c.Candidate.RadiusKm,
		ZAmplitudeKm: c.Candidate.ZAmplitudeKm,
		Point:        r3.Vec{X: c.Candidate.XKm, Y: c.Candidate.YKm, Z: c.Candidate.ZKm},
	}
}

// Propagation returns the propagator settings.
func (c *Config) Propagation() propagation.Config {
	frame, _ := transform.ParseFrame(c.Frame)
	return propagation.Config{
		Workers:    c.Workers,
		Frame:      frame,
		MaxCatalog: c.MaxCatalogSize,
	}
}

// Analysis returns the engine options.
func (c *Config) Analysis() analysis.Options {
	return analysis.Options{
		Steps:       c.Steps,
		Step:        c.Step(),
		ThresholdKm: c.ThresholdKm,
		Propagation: c.Propagation(),
	}
}

// Loader returns the acquisition settings.
func (c *Config) Loader() tle.LoaderConfig {
	return tle.LoaderConfig{
		File:        c.TLE.File,
		SourceURL:   c.TLE.SourceURL,
		ExtraURLs:   c.TLE.ExtraURLs,
		CacheDir:    c.TLE.CacheDir,
		MaxFiles:    c.TLE.MaxFiles,
		MaxAge:      c.TLE.MaxAge,
		EnableFetch: c.TLE.EnableFetch,
	}
}

// AuthMiddleware returns the auth settings.
func (c *Config) AuthMiddleware() auth.Config {
	return auth.Config{Enabled: c.Auth.Enabled, Token: c.Auth.Token}
}

// Level returns the slog level for log_level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// LogValue keeps the auth token out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("collision_threshold_km", c.ThresholdKm),
		slog.Int("propagation_steps", c.Steps),
		slog.Int("step_minutes", c.StepMinutes),
		slog.Int("max_catalog_size", c.MaxCatalogSize),
		slog.Int("workers", c.Workers),
		slog.String("frame", c.Frame),
		slog.String("candidate", c.Candidate.Name),
		slog.String("variant", c.Candidate.Variant),
		slog.String("tle_file", c.TLE.File),
		slog.String("tle_source_url", c.TLE.SourceURL),
		slog.Bool("tle_fetch_enabled", c.TLE.EnableFetch),
		slog.Bool("auth_enabled", c.Auth.Enabled),
	)
}
