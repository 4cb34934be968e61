// Package s3 publishes snapshots to an S3 bucket configured for static website hosting.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/sitehost"
)

// Config captures the bucket and how it is served.
type Config struct {
	Bucket string
	Region string
	Dir    string
	// PublicBaseURL defaults to the bucket's virtual-hosted URL.
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Host writes snapshots with PutObject.
type Host struct {
	client putObjectAPI
	cfg    Config
}

// New loads the default AWS credential chain and builds a Host.
func New(ctx context.Context, cfg Config) (*Host, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg)
}

// NewWithClient wires an existing S3 client.
func NewWithClient(client putObjectAPI, cfg Config) (*Host, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.Dir == "" {
		cfg.Dir = sitehost.DefaultDir
	}
	if cfg.PublicBaseURL == "" {
		region := cfg.Region
		if region == "" {
			region = "us-east-1"
		}
		cfg.PublicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
	return &Host{client: client, cfg: cfg}, nil
}

// Publish uploads the snapshot as text/html and returns its public URL.
func (h *Host) Publish(ctx context.Context, filename string, content []byte) (clip.PublishedArtifact, error) {
	key, err := sitehost.ObjectPath(h.cfg.Dir, filename)
	if err != nil {
		return clip.PublishedArtifact{}, err
	}
	_, err = h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(h.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(content),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("no-cache, max-age=0"),
	})
	if err != nil {
		return clip.PublishedArtifact{}, fmt.Errorf("failed to upload object to S3: %w", err)
	}
	return clip.PublishedArtifact{
		StorageFilename: filename,
		PublicURL:       sitehost.PublicURL(h.cfg.PublicBaseURL, key),
	}, nil
}
