package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
)

// objectGetter is the subset of the S3 client the source needs
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a CSV export of the log stored in S3
type S3Source struct {
	client objectGetter
	bucket string
	key    string
	rng    Range
}

// NewS3Source creates a source for an s3://bucket/key URL. Static
// credentials are used when both keys are set; otherwise the default AWS
// credential chain applies.
func NewS3Source(ctx context.Context, url string, rng Range, region, accessKey, secretKey string) (*S3Source, error) {
	bucket, key, err := parseS3URL(url)
	if err != nil {
		return nil, apperrors.Configuration("parse sheet path", err)
	}

	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.SourceAccess("load aws config", err)
	}

	return newS3Source(s3.NewFromConfig(cfg), bucket, key, rng), nil
}

func newS3Source(client objectGetter, bucket, key string, rng Range) *S3Source {
	return &S3Source{client: client, bucket: bucket, key: key, rng: rng}
}

// Name implements Source
func (s *S3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// Fetch implements Source
func (s *S3Source) Fetch(ctx context.Context) (*Table, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, apperrors.Configuration("get "+s.Name(), err)
		}
		return nil, apperrors.SourceAccess("get "+s.Name(), err)
	}
	defer out.Body.Close()

	return readTable(out.Body, s.rng, s.Name())
}

// parseS3URL splits s3://bucket/key
func parseS3URL(url string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(url, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", url)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url %q needs a bucket and a key", url)
	}
	return bucket, key, nil
}
