package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	JWT         JWTConfig
	S3          S3Config
	Log         LogConfig
	CORS        CORSConfig
	Allocation  AllocationConfig
	Adjustments AdjustmentsConfig
	Export      ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token validation settings. Tokens are issued by the identity provider.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for export artifacts.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AllocationConfig holds calculator defaults.
type AllocationConfig struct {
	// RemainderPolicy applies to rule sets that do not name their own.
	RemainderPolicy string `mapstructure:"remainder_policy"`
}

// AdjustmentsConfig holds adjustment approval policy.
type AdjustmentsConfig struct {
	// AutoApproveAdmin approves admin-created adjustments immediately.
	// Disable it to require a second admin to review every adjustment.
	AutoApproveAdmin bool `mapstructure:"auto_approve_admin"`
}

// ExportConfig holds payroll export settings.
type ExportConfig struct {
	Format  string `mapstructure:"format"`
	Storage string `mapstructure:"storage"`
}

// Load reads configuration from environment variables with the TIPSETTLE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TIPSETTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "tipsettle")
	v.SetDefault("db.password", "tipsettle_secret")
	v.SetDefault("db.name", "tipsettle_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "tipsettle")

	v.SetDefault("s3.region", "eu-west-2")
	v.SetDefault("s3.bucket", "tipsettle-exports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "payroll-exports")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("allocation.remainder_policy", "unallocated")
	v.SetDefault("adjustments.auto_approve_admin", true)

	v.SetDefault("export.format", "csv")
	v.SetDefault("export.storage", "s3")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "TIPSETTLE_SERVER_PORT",
		"server.read_timeout":            "TIPSETTLE_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "TIPSETTLE_SERVER_WRITE_TIMEOUT",
		"server.environment":             "TIPSETTLE_SERVER_ENVIRONMENT",
		"db.host":                        "TIPSETTLE_DB_HOST",
		"db.port":                        "TIPSETTLE_DB_PORT",
		"db.user":                        "TIPSETTLE_DB_USER",
		"db.password":                    "TIPSETTLE_DB_PASSWORD",
		"db.name":                        "TIPSETTLE_DB_NAME",
		"db.sslmode":                     "TIPSETTLE_DB_SSLMODE",
		"db.max_open":                    "TIPSETTLE_DB_MAX_OPEN",
		"db.max_idle":                    "TIPSETTLE_DB_MAX_IDLE",
		"jwt.secret":                     "TIPSETTLE_JWT_SECRET",
		"jwt.issuer":                     "TIPSETTLE_JWT_ISSUER",
		"s3.region":                      "TIPSETTLE_S3_REGION",
		"s3.bucket":                      "TIPSETTLE_S3_BUCKET",
		"s3.endpoint":                    "TIPSETTLE_S3_ENDPOINT",
		"s3.access_key":                  "TIPSETTLE_S3_ACCESS_KEY",
		"s3.secret_key":                  "TIPSETTLE_S3_SECRET_KEY",
		"s3.prefix":                      "TIPSETTLE_S3_PREFIX",
		"log.level":                      "TIPSETTLE_LOG_LEVEL",
		"log.format":                     "TIPSETTLE_LOG_FORMAT",
		"cors.allowed_origins":           "TIPSETTLE_CORS_ALLOWED_ORIGINS",
		"allocation.remainder_policy":    "TIPSETTLE_ALLOCATION_REMAINDER_POLICY",
		"adjustments.auto_approve_admin": "TIPSETTLE_ADJUSTMENTS_AUTO_APPROVE_ADMIN",
		"export.format":                  "TIPSETTLE_EXPORT_FORMAT",
		"export.storage":                 "TIPSETTLE_EXPORT_STORAGE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TIPSETTLE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TIPSETTLE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    strings.Trim(v.GetString("s3.prefix"), "/"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Allocation = AllocationConfig{
		RemainderPolicy: v.GetString("allocation.remainder_policy"),
	}
	cfg.Adjustments = AdjustmentsConfig{
		AutoApproveAdmin: v.GetBool("adjustments.auto_approve_admin"),
	}
	cfg.Export = ExportConfig{
		Format:  strings.ToLower(v.GetString("export.format")),
		Storage: strings.ToLower(v.GetString("export.storage")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Allocation.RemainderPolicy {
	case "unallocated", "first_recipient", "largest_remainder":
	default:
		return fmt.Errorf("config: unknown allocation.remainder_policy %q", c.Allocation.RemainderPolicy)
	}
	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("config: unknown export.format %q", c.Export.Format)
	}
	switch c.Export.Storage {
	case "s3", "none":
	default:
		return fmt.Errorf("config: unknown export.storage %q", c.Export.Storage)
	}
	return nil
}
