package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Archive   ArchiveConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the solve-result cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ArchiveConfig toggles durable schedule history in Postgres.
type ArchiveConfig struct {
	Enabled bool
}

// SchedulerConfig carries the default policy applied to planning units that
// do not provide their own, plus batch worker tuning.
type SchedulerConfig struct {
	Strictness              string
	MaxHoursDay             int
	MaxHoursWeek            int
	TimeLimit               time.Duration
	LoadBalanceWeight       float64
	GapMinimizeWeight       float64
	Strategy                string
	MaxIterations           int
	Shifts                  int
	AllowDualSpecialization bool
	AllowPartialCommit      bool
	MinorPenaltyWeight      float64
	MinTeacherLoad          int
	NearCeilingRatio        float64
	LowUtilizationRatio     float64
	BatchWorkers            int
	BatchRetries            int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_SOLVE_CACHE"),
		TTL:     parseDuration(v.GetString("SOLVE_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Archive = ArchiveConfig{
		Enabled: v.GetBool("ENABLE_SCHEDULE_ARCHIVE"),
	}

	cfg.Scheduler = SchedulerConfig{
		Strictness:              v.GetString("SCHEDULER_SPECIALIZATION_STRICTNESS"),
		MaxHoursDay:             v.GetInt("SCHEDULER_MAX_HOURS_DAY"),
		MaxHoursWeek:            v.GetInt("SCHEDULER_MAX_HOURS_WEEK"),
		TimeLimit:               parseDuration(v.GetString("SCHEDULER_TIME_LIMIT"), 5*time.Second),
		LoadBalanceWeight:       v.GetFloat64("SCHEDULER_LOAD_BALANCE_WEIGHT"),
		GapMinimizeWeight:       v.GetFloat64("SCHEDULER_GAP_MINIMIZE_WEIGHT"),
		Strategy:                v.GetString("SCHEDULER_STRATEGY"),
		MaxIterations:           v.GetInt("SCHEDULER_MAX_ITERATIONS"),
		Shifts:                  v.GetInt("SCHEDULER_SHIFTS"),
		AllowDualSpecialization: v.GetBool("SCHEDULER_ALLOW_DUAL_SPECIALIZATION"),
		AllowPartialCommit:      v.GetBool("SCHEDULER_ALLOW_PARTIAL_COMMIT"),
		MinorPenaltyWeight:      v.GetFloat64("SCHEDULER_MINOR_PENALTY_WEIGHT"),
		MinTeacherLoad:          v.GetInt("SCHEDULER_MIN_TEACHER_LOAD"),
		NearCeilingRatio:        v.GetFloat64("SCHEDULER_NEAR_CEILING_RATIO"),
		LowUtilizationRatio:     v.GetFloat64("SCHEDULER_LOW_UTILIZATION_RATIO"),
		BatchWorkers:            v.GetInt("SCHEDULER_BATCH_WORKERS"),
		BatchRetries:            v.GetInt("SCHEDULER_BATCH_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "sma-timetable")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SOLVE_CACHE", false)
	v.SetDefault("SOLVE_CACHE_TTL", "30m")
	v.SetDefault("ENABLE_SCHEDULE_ARCHIVE", false)

	v.SetDefault("SCHEDULER_SPECIALIZATION_STRICTNESS", "major-or-minor")
	v.SetDefault("SCHEDULER_MAX_HOURS_DAY", 6)
	v.SetDefault("SCHEDULER_MAX_HOURS_WEEK", 30)
	v.SetDefault("SCHEDULER_TIME_LIMIT", "5s")
	v.SetDefault("SCHEDULER_LOAD_BALANCE_WEIGHT", 1.0)
	v.SetDefault("SCHEDULER_GAP_MINIMIZE_WEIGHT", 1.0)
	v.SetDefault("SCHEDULER_STRATEGY", "backtracking")
	v.SetDefault("SCHEDULER_MAX_ITERATIONS", 50000)
	v.SetDefault("SCHEDULER_SHIFTS", 1)
	v.SetDefault("SCHEDULER_ALLOW_DUAL_SPECIALIZATION", false)
	v.SetDefault("SCHEDULER_ALLOW_PARTIAL_COMMIT", false)
	v.SetDefault("SCHEDULER_MINOR_PENALTY_WEIGHT", 0.5)
	v.SetDefault("SCHEDULER_MIN_TEACHER_LOAD", 0)
	v.SetDefault("SCHEDULER_NEAR_CEILING_RATIO", 0.9)
	v.SetDefault("SCHEDULER_LOW_UTILIZATION_RATIO", 0.2)
	v.SetDefault("SCHEDULER_BATCH_WORKERS", 4)
	v.SetDefault("SCHEDULER_BATCH_RETRIES", 1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
