package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	DBDriver    string `yaml:"db_driver"`
	DBDSN       string `yaml:"db_dsn"`
	LogFile     string `yaml:"log_file"`
	TemplateDir string `yaml:"templates_dir"`

	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SeedDemo      bool          `yaml:"seed_demo"`

	CacheBackend     string        `yaml:"cache_backend"`
	ProductsCacheTTL time.Duration `yaml:"products_cache_ttl"`
	RedisAddr        string        `yaml:"redis_addr"`
	RedisPassword    string        `yaml:"redis_password"`
	RedisDB          int           `yaml:"redis_db"`

	JobsBackend     string        `yaml:"jobs_backend"`
	JobsQueue       string        `yaml:"jobs_queue"`
	JobsWorkers     int           `yaml:"jobs_workers"`
	JobsMaxAttempts int           `yaml:"jobs_max_attempts"`
	JobsBackoffBase time.Duration `yaml:"jobs_backoff_base"`
	JobsBackoffMax  time.Duration `yaml:"jobs_backoff_max"`
	SQSQueueURL     string        `yaml:"sqs_queue_url"`
	AWSRegion       string        `yaml:"aws_region"`
	AWSEndpoint     string        `yaml:"aws_endpoint_override"`

	CouponSweepInterval time.Duration   `yaml:"coupon_sweep_interval"`
	WelcomeCouponAmount decimal.Decimal `yaml:"welcome_coupon_amount"`
	WelcomeCouponTTL    time.Duration   `yaml:"welcome_coupon_ttl"`
}

func defaults() Config {
	return Config{
		Port:                "8080",
		DBDriver:            "sqlite",
		DBDSN:               "neurocart.db",
		LogFile:             "",
		TemplateDir:         "./web/templates",
		SessionTTL:          24 * time.Hour,
		SeedDemo:            true,
		CacheBackend:        "memory",
		ProductsCacheTTL:    5 * time.Minute,
		RedisAddr:           "localhost:6379",
		JobsBackend:         "memory",
		JobsQueue:           "neurocart:jobs",
		JobsWorkers:         2,
		JobsMaxAttempts:     5,
		JobsBackoffBase:     time.Second,
		JobsBackoffMax:      time.Minute,
		AWSRegion:           "us-east-1",
		CouponSweepInterval: 24 * time.Hour,
		WelcomeCouponAmount: decimal.NewFromInt(5000),
		WelcomeCouponTTL:    30 * 24 * time.Hour,
	}
}

// Load builds the config from defaults, a .env file, the YAML file named by CONFIG_FILE
// and finally the process environment, in that order of precedence (env wins).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return cfg, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if err := checkDurations(cfg); err != nil {
		return cfg, err
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s CACHE=%s JOBS=%s WORKERS=%d REDIS=%s SQS=%s ADMIN=%s",
		cfg.Port, cfg.DBDriver, cfg.CacheBackend, cfg.JobsBackend, cfg.JobsWorkers,
		cfg.RedisAddr, cfg.SQSQueueURL, redact(cfg.AdminPassword))
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"PORT":                  &cfg.Port,
		"DB_DRIVER":             &cfg.DBDriver,
		"DB_DSN":                &cfg.DBDSN,
		"LOG_FILE":              &cfg.LogFile,
		"TEMPLATES_DIR":         &cfg.TemplateDir,
		"ADMIN_EMAIL":           &cfg.AdminEmail,
		"ADMIN_PASSWORD":        &cfg.AdminPassword,
		"CACHE_BACKEND":         &cfg.CacheBackend,
		"REDIS_ADDR":            &cfg.RedisAddr,
		"REDIS_PASSWORD":        &cfg.RedisPassword,
		"JOBS_BACKEND":          &cfg.JobsBackend,
		"JOBS_QUEUE":            &cfg.JobsQueue,
		"SQS_QUEUE_URL":         &cfg.SQSQueueURL,
		"AWS_REGION":            &cfg.AWSRegion,
		"AWS_ENDPOINT_OVERRIDE": &cfg.AWSEndpoint,
	}
	for k, p := range str {
		if v := os.Getenv(k); v != "" {
			*p = v
		}
	}

	ints := map[string]*int{
		"REDIS_DB":          &cfg.RedisDB,
		"JOBS_WORKERS":      &cfg.JobsWorkers,
		"JOBS_MAX_ATTEMPTS": &cfg.JobsMaxAttempts,
	}
	for k, p := range ints {
		if v := os.Getenv(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = n
		}
	}

	durs := map[string]*time.Duration{
		"SESSION_TTL":           &cfg.SessionTTL,
		"PRODUCTS_CACHE_TTL":    &cfg.ProductsCacheTTL,
		"JOBS_BACKOFF_BASE":     &cfg.JobsBackoffBase,
		"JOBS_BACKOFF_MAX":      &cfg.JobsBackoffMax,
		"COUPON_SWEEP_INTERVAL": &cfg.CouponSweepInterval,
		"WELCOME_COUPON_TTL":    &cfg.WelcomeCouponTTL,
	}
	for k, p := range durs {
		if v := os.Getenv(k); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*p = d
		}
	}

	if v := os.Getenv("SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SEED_DEMO: %w", err)
		}
		cfg.SeedDemo = b
	}

	if v := os.Getenv("WELCOME_COUPON_AMOUNT"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("WELCOME_COUPON_AMOUNT: %w", err)
		}
		cfg.WelcomeCouponAmount = d
	}
	return nil
}

// checkDurations rejects intervals that would stall or crash the workers: a ticker
// panics on a non-positive period.
func checkDurations(cfg Config) error {
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"SESSION_TTL", cfg.SessionTTL},
		{"JOBS_BACKOFF_BASE", cfg.JobsBackoffBase},
		{"JOBS_BACKOFF_MAX", cfg.JobsBackoffMax},
		{"COUPON_SWEEP_INTERVAL", cfg.CouponSweepInterval},
		{"WELCOME_COUPON_TTL", cfg.WelcomeCouponTTL},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.name, p.d)
		}
	}
	if cfg.ProductsCacheTTL < 0 {
		return fmt.Errorf("PRODUCTS_CACHE_TTL must not be negative, got %s", cfg.ProductsCacheTTL)
	}
	if cfg.JobsWorkers < 1 {
		return fmt.Errorf("JOBS_WORKERS must be at least 1, got %d", cfg.JobsWorkers)
	}
	return nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
