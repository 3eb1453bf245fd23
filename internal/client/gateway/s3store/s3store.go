// Package s3store stores listing images in an S3 compatible bucket (MinIO in
// development) and serves them from a public base URL.
package s3store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
)

var _ gateway.FileStore = (*Store)(nil)

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

type Config struct {
	Region     string
	User       string
	Password   string
	Bucket     string
	Endpoint   string
	PublicBase string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client     objectPutter
	bucket     string
	publicBase string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.User, cfg.Password, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	publicBase := cfg.PublicBase
	if publicBase == "" {
		publicBase = cfg.Endpoint
	}
	return newStore(client, cfg.Bucket, publicBase), nil
}

func newStore(client objectPutter, bucket, publicBase string) *Store {
	return &Store{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}
}

func (s *Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + strings.TrimLeft(key, "/")
}
