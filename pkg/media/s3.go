package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API used by S3Source.
type S3Client interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config describes where the media set lives.
type S3Config struct {
	Bucket         string `env:"MEDIA_S3_BUCKET"`
	Prefix         string `env:"MEDIA_S3_PREFIX"`
	Region         string `env:"MEDIA_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"MEDIA_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"MEDIA_S3_SECRET_KEY"`
	Endpoint       string `env:"MEDIA_S3_ENDPOINT"` // S3-compatible services
	ForcePathStyle bool   `env:"MEDIA_S3_FORCE_PATH_STYLE"`
}

// S3Source lists objects directly under a bucket prefix.
type S3Source struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Source builds a source with the default AWS configuration chain,
// overridden by static credentials and endpoint from cfg when set.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return NewS3SourceWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3SourceWithClient builds a source over an existing client.
func NewS3SourceWithClient(client S3Client, bucket, prefix string) *S3Source {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// List returns the objects directly under the prefix, sorted by name.
// Nested "directories" and hidden names are skipped.
func (s *S3Source) List(ctx context.Context) ([]Item, error) {
	var (
		items []Item
		token *string
	)

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Join(ErrListFailed, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			if name == "" || strings.Contains(name, "/") || hidden(path.Base(name)) {
				continue
			}
			items = append(items, NewItem(name, aws.ToInt64(obj.Size), s.opener(key)))
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *S3Source) opener(key string) func(ctx context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("get object %s: %w", key, err)
		}
		return out.Body, nil
	}
}
