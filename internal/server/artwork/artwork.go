// Package artwork turns a movie's stored image path into a URL clients can
// fetch. With object storage configured, paths are S3 keys and the URL is a
// presigned GET; otherwise the stored path is returned unchanged.
package artwork

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/dmitrijs2005/animeflix/internal/server/config"
)

type Resolver interface {
	URL(ctx context.Context, path string) (string, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Passthrough returns image paths as they are stored.
type Passthrough struct{}

func (Passthrough) URL(_ context.Context, path string) (string, error) {
	return path, nil
}

type S3Presigner struct {
	client *s3.PresignClient
	bucket string
	ttl    time.Duration
}

// New returns an S3Presigner when cfg names a bucket and Passthrough otherwise.
func New(ctx context.Context, cfg *sc.Config) (Resolver, error) {
	if !cfg.ArtworkEnabled() {
		return Passthrough{}, nil
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{
		client: newS3PresignClient(client),
		bucket: cfg.S3Bucket,
		ttl:    cfg.ArtworkURLTTL,
	}, nil
}

// URL presigns a GET for path. Empty paths and absolute URLs pass through.
func (p *S3Presigner) URL(ctx context.Context, path string) (string, error) {
	if path == "" || isAbsoluteURL(path) {
		return path, nil
	}

	key := strings.TrimPrefix(path, "/")
	req, err := presignGetObject(p.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func isAbsoluteURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
