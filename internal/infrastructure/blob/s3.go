package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"loanflow/internal/domain/document"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client the store uses.
type S3API interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Store struct {
	client  S3API
	bucket  string
	baseURL string
}

var _ document.BlobStore = (*S3Store)(nil)

// NewS3Store loads credentials from the default AWS chain. A non-empty
// endpoint switches to path-style addressing for S3-compatible servers.
func NewS3Store(ctx context.Context, bucket, region, endpoint, publicBaseURL string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, bucket, publicBaseURL), nil
}

func NewS3StoreWithClient(client S3API, bucket, publicBaseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *S3Store) DeleteObject(ctx context.Context, publicURL string) error {
	key, err := s.keyFor(publicURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// keyFor strips the public base URL when it matches, otherwise takes the URL
// path, dropping a leading bucket segment left by path-style URLs.
func (s *S3Store) keyFor(publicURL string) (string, error) {
	if s.baseURL != "" && strings.HasPrefix(publicURL, s.baseURL+"/") {
		return strings.TrimPrefix(publicURL, s.baseURL+"/"), nil
	}
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("parse document url %q: %w", publicURL, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("document url %q has no object key", publicURL)
	}
	return key, nil
}
