package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

// Exporter periodically copies stored webhook events to an S3 bucket as
// NDJSON batches. It is an operational extra: failures never touch the
// ingestion path, and nothing is deleted locally.
type Exporter struct {
	s3Client *s3.Client
	config   *Config
	events   *webhook.Service

	stopCh chan struct{}
}

// NewExporter creates an S3-backed event exporter
func NewExporter(cfg *Config, events *webhook.Service) (*Exporter, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("event archive is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services (Backblaze B2 etc.) need path style
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	return &Exporter{
		s3Client: s3Client,
		config:   cfg,
		events:   events,
	}, nil
}

// ExportSince uploads all events received in [since, now) as one NDJSON
// object and returns the number of exported events.
func (e *Exporter) ExportSince(ctx context.Context, since time.Time) (int, error) {
	now := time.Now().UTC()
	events, err := e.events.ListEvents(ctx, webhook.EventFilter{Since: &since, Until: &now})
	if err != nil {
		return 0, fmt.Errorf("listing events for export: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return 0, fmt.Errorf("encoding event %s: %w", event.EventID, err)
		}
	}

	key := e.config.ObjectKey(now)
	_, err = e.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return 0, fmt.Errorf("uploading archive batch %s: %w", key, err)
	}

	log.Infof("[Archive] Exported %d events to s3://%s/%s", len(events), e.config.BucketName, key)
	return len(events), nil
}

// Start runs the export loop until Stop is called. Each tick exports the
// window since the previous successful run.
func (e *Exporter) Start() {
	if e.stopCh != nil {
		return
	}
	e.stopCh = make(chan struct{})

	go func() {
		ticker := time.NewTicker(e.config.Interval)
		defer ticker.Stop()
		log.Infof("[Archive] Export loop started (interval: %s)", e.config.Interval)

		last := time.Now().UTC().Add(-e.config.Interval)
		for {
			select {
			case <-e.stopCh:
				log.Info("[Archive] Export loop stopped")
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := e.ExportSince(ctx, last); err != nil {
					log.Errorf("[Archive] Export failed: %v", err)
				} else {
					last = time.Now().UTC()
				}
				cancel()
			}
		}
	}()
}

// Stop terminates the export loop
func (e *Exporter) Stop() {
	if e.stopCh != nil {
		close(e.stopCh)
		e.stopCh = nil
	}
}
