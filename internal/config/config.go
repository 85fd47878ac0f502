package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nanosynth/nanosynth/internal/job"
	"github.com/nanosynth/nanosynth/pkg/models"
)

// Config holds all configuration for the NanoSynth server and CLI.
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Jobs      JobsConfig
}

type ServerConfig struct {
	Port int
	Env  string
	// MaxUploadBytes bounds multipart bodies before they reach validation.
	MaxUploadBytes int64
}

type RedisConfig struct {
	URL string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LogConfig struct {
	Level slog.Level
}

type JobsConfig struct {
	// Seed makes every draw reproducible; zero means fresh entropy per job.
	Seed     uint64
	Timeout  time.Duration
	TTL      time.Duration
	Profiles job.Profiles
}

// envPrefixes maps each job kind to the prefix of its override variables.
var envPrefixes = map[models.JobKind]string{
	models.KindDesignGeneration:    "DESIGN",
	models.KindImageAnalysis:       "IMAGE",
	models.KindStatisticalAnalysis: "STATISTICAL",
	models.KindPIVAnalysis:         "PIV",
}

// Load reads an optional .env file (missing files are ignored), then
// configuration from environment variables, and returns a validated Config.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("NANOSYNTH_PORT", 8080),
			Env:            envString("NANOSYNTH_ENV", "development"),
			MaxUploadBytes: envInt64("NANOSYNTH_MAX_BODY_BYTES", 110*job.MiB),
		},
		Redis: RedisConfig{
			URL: envString("REDIS_URL", "redis://localhost:6379/0"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Log: LogConfig{
			Level: envLevel("LOG_LEVEL", slog.LevelInfo),
		},
		Jobs: JobsConfig{
			Seed:     envUint64("JOB_SEED", 0),
			Timeout:  envDuration("JOB_TIMEOUT", 2*time.Minute),
			TTL:      envDuration("JOB_TTL", 30*time.Minute),
			Profiles: loadProfiles(),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		// Load never overrides variables already set in the environment.
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

func loadProfiles() job.Profiles {
	profiles := job.DefaultProfiles()
	for kind, prefix := range envPrefixes {
		p := profiles[kind]
		p.LatencyMin = envDuration(prefix+"_LATENCY_MIN", p.LatencyMin)
		p.LatencyMax = envDuration(prefix+"_LATENCY_MAX", p.LatencyMax)
		if p.LatencyMax < p.LatencyMin && os.Getenv(prefix+"_LATENCY_MAX") == "" {
			p.LatencyMax = p.LatencyMin
		}
		p.FaultProbability = envFloat(prefix+"_FAULT_PROBABILITY", p.FaultProbability)
		if kind.TakesFile() {
			p.MaxUploadBytes = envInt64(prefix+"_MAX_UPLOAD_BYTES", p.MaxUploadBytes)
		}
		profiles[kind] = p
	}
	return profiles
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("NANOSYNTH_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if c.Jobs.Timeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	if c.Jobs.TTL <= 0 {
		return fmt.Errorf("JOB_TTL must be positive")
	}

	for _, kind := range models.AllKinds {
		prefix := envPrefixes[kind]
		p := c.Jobs.Profiles[kind]
		if p.LatencyMin < 0 {
			return fmt.Errorf("%s_LATENCY_MIN must not be negative", prefix)
		}
		if p.LatencyMax < p.LatencyMin {
			return fmt.Errorf("%s_LATENCY_MAX (%s) must not be below %s_LATENCY_MIN (%s)",
				prefix, p.LatencyMax, prefix, p.LatencyMin)
		}
		if math.IsNaN(p.FaultProbability) || p.FaultProbability < 0 || p.FaultProbability > 1 {
			return fmt.Errorf("%s_FAULT_PROBABILITY must be between 0 and 1, got %v", prefix, p.FaultProbability)
		}
		if kind.TakesFile() && p.MaxUploadBytes <= 0 {
			return fmt.Errorf("%s_MAX_UPLOAD_BYTES must be positive", prefix)
		}
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envUint64(key string, defaultVal uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

// envFloat keeps out-of-range values so validate can report them.
func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envLevel(key string, defaultVal slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return defaultVal
	}
	return lvl
}
