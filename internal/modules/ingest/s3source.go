package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectGetter is the subset of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads tables from a bucket, laid out as <prefix>/<name>.
type S3Source struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewS3Source wraps an existing client.
func NewS3Source(client ObjectGetter, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// S3Options configures a bucket source.
type S3Options struct {
	Bucket   string
	Prefix   string
	Endpoint string // S3-compatible endpoint, empty for AWS
	Region   string

	AccessKeyID     string
	SecretAccessKey string
}

// NewS3SourceFromOptions builds a client from the default AWS credential
// chain, or from static keys when both are set. A non-empty endpoint
// targets an S3-compatible store with path-style addressing.
func NewS3SourceFromOptions(ctx context.Context, opts S3Options) (*S3Source, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Source(client, opts.Bucket, opts.Prefix), nil
}

func (s *S3Source) String() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// Open implements Source.
func (s *S3Source) Open(ctx context.Context, _ DocType, _ int, name string) (io.ReadCloser, error) {
	key := name
	if s.prefix != "" {
		key = path.Join(s.prefix, name)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("get s3 object %s: %w", key, err)
	}
	return out.Body, nil
}
