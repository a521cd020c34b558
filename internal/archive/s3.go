// Package archive writes best-effort JSON snapshots of each cycle's
// persisted items to S3-compatible storage (Cloudflare R2).
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pulsewire/ingest/internal/config"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/rs/zerolog"
)

// Archiver uploads cycle snapshots. A nil *Archiver is valid and does
// nothing, so wiring stays unconditional.
type Archiver struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// New builds an archiver from the R2 configuration. Returns nil when no
// endpoint is configured.
func New(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	if cfg.R2Endpoint == "" || cfg.R2AccessKey == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.R2AccessKey, cfg.R2SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2Endpoint)
		o.UsePathStyle = true
	})

	return &Archiver{
		client: client,
		bucket: cfg.R2Bucket,
		log:    logger.With("archive"),
	}, nil
}

// ArchiveCycle uploads one cycle's persisted items under a dated key.
// Failures are logged and swallowed; archiving never fails a cycle.
func (a *Archiver) ArchiveCycle(ctx context.Context, ct models.ContentType, items []models.StoredItem) {
	if a == nil || len(items) == 0 {
		return
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to marshal cycle snapshot")
		return
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/%s/%d.json", ct, now.Format("2006/01/02"), now.Unix())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		a.log.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to upload cycle snapshot")
		return
	}

	a.log.Info().
		Str("key", key).
		Int("items", len(items)).
		Msg("Archived cycle snapshot")
}
