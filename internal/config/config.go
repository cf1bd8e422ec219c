package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	AppModeProduction = "PROD"
	AppModeDevelop    = "DEV"
)

const (
	BlobDriverLocal = "local"
	BlobDriverS3    = "s3"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	AppMode  string `env:"APP_MODE" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	MySQLHost string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB   string `env:"MYSQL_DB" envDefault:"loanflow"`
	MySQLUser string `env:"MYSQL_USER" envDefault:"loanflow"`
	MySQLPass string `env:"MYSQL_PASS" envDefault:"loanflow"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	IdempTTLSecs int `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	SMTP   SMTP
	Notify Notify
	Blob   Blob
}

type SMTP struct {
	Host           string        `env:"SMTP_HOST" envDefault:"mailhog"`
	Port           int           `env:"SMTP_PORT" envDefault:"1025"`
	User           string        `env:"SMTP_USER"`
	Pass           string        `env:"SMTP_PASS"`
	From           string        `env:"SMTP_FROM" envDefault:"no-reply@loanflow.local"`
	MaxConns       int64         `env:"SMTP_MAX_CONNS" envDefault:"4"`
	RatePerSec     float64       `env:"SMTP_RATE_PER_SEC" envDefault:"5"`
	ConnectTimeout time.Duration `env:"SMTP_CONNECT_TIMEOUT" envDefault:"10s"`
	SendTimeout    time.Duration `env:"SMTP_SEND_TIMEOUT" envDefault:"30s"`
}

type Notify struct {
	Interval          time.Duration `env:"NOTIFY_INTERVAL" envDefault:"1s"`
	BaseDelay         time.Duration `env:"NOTIFY_BASE_DELAY" envDefault:"5s"`
	MaxRetries        int           `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`
	Capacity          int           `env:"NOTIFY_CAPACITY" envDefault:"10000"`
	TemplateCacheSize int           `env:"TEMPLATE_CACHE_SIZE" envDefault:"100"`
}

type Blob struct {
	Driver        string `env:"BLOB_DRIVER" envDefault:"local"`
	LocalDir      string `env:"BLOB_LOCAL_DIR" envDefault:"./data/documents"`
	PublicBaseURL string `env:"BLOB_PUBLIC_BASE_URL" envDefault:"http://localhost:8080/documents"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"eu-west-1"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
}

// Load reads the environment, after merging a .env file from the working
// directory when there is one. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.AppMode != AppModeDevelop && c.AppMode != AppModeProduction {
		return fmt.Errorf("invalid APP_MODE %q (want %s or %s)", c.AppMode, AppModeDevelop, AppModeProduction)
	}
	if c.SMTP.Host == "" || c.SMTP.Port <= 0 || c.SMTP.From == "" {
		return errors.New("missing SMTP config (SMTP_HOST/PORT/FROM)")
	}
	if c.SMTP.MaxConns <= 0 || c.SMTP.RatePerSec <= 0 {
		return errors.New("SMTP_MAX_CONNS and SMTP_RATE_PER_SEC must be positive")
	}
	switch c.Blob.Driver {
	case BlobDriverLocal:
		if c.Blob.LocalDir == "" {
			return errors.New("missing BLOB_LOCAL_DIR")
		}
	case BlobDriverS3:
		if c.Blob.S3Bucket == "" {
			return errors.New("missing S3_BUCKET")
		}
	default:
		return fmt.Errorf("invalid BLOB_DRIVER %q", c.Blob.Driver)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) SMTPAddr() string { return net.JoinHostPort(c.SMTP.Host, strconv.Itoa(c.SMTP.Port)) }
