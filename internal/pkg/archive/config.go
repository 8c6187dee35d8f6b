package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/openbankingng/monobridge/internal/pkg/env"
)

// Config holds S3 event archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Interval        time.Duration
	Enabled         bool
}

// LoadConfig loads archive configuration from environment variables
func LoadConfig() (*Config, error) {
	interval := 24 * time.Hour
	if raw := env.GetEnv("ARCHIVE_INTERVAL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ARCHIVE_INTERVAL: %w", err)
		}
		interval = parsed
	}

	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Interval:        interval,
		Enabled:         env.GetEnv("ARCHIVE_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the event archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the event archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the event archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if the event archive is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates the archive key for a batch exported at ts.
// Format: webhook-events/YYYY/MM/DD/<unix>.ndjson
func (c *Config) ObjectKey(ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("webhook-events/%04d/%02d/%02d/%d.ndjson",
		ts.Year(), int(ts.Month()), ts.Day(), ts.Unix())
}
