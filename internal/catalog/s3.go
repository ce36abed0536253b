package catalog

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Dialer reads day files from an S3-compatible bucket. Endpoint is
// optional; setting it (with path-style addressing) covers R2 and MinIO
// mirrors of the producer's FTP tree.
type S3Dialer struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	Timeout         time.Duration
}

// Dial builds the client and verifies the bucket is reachable, so the
// connect phase fails the same way the FTP backend does. Connect faults
// collapse into the network class; the SDK does not separate credential
// rejection cleanly without response-code inspection.
func (d *S3Dialer) Dial() (Session, error) {
	if d.Bucket == "" {
		return nil, fmt.Errorf("%w: no bucket configured", ErrNetwork)
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	credProvider := credentials.NewStaticCredentialsProvider(d.AccessKeyID, d.SecretAccessKey, "")
	opts := s3.Options{
		Credentials:  credProvider,
		Region:       d.Region,
		UsePathStyle: true,
	}
	if d.Endpoint != "" {
		opts.BaseEndpoint = aws.String(d.Endpoint)
	}
	client := s3.New(opts)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(d.Bucket)}); err != nil {
		return nil, fmt.Errorf("%w: bucket %q: %v", ErrNetwork, d.Bucket, err)
	}

	return &s3Session{client: client, bucket: d.Bucket, prefix: d.Prefix, timeout: timeout}, nil
}

type s3Session struct {
	client  *s3.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

func (s *s3Session) List() ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: no open session", ErrListing)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrListing, err)
		}
		for _, obj := range page.Contents {
			names = append(names, path.Base(aws.ToString(obj.Key)))
		}
	}
	return FilterListing(names), nil
}

func (s *s3Session) Download(name string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("%w: no open session", ErrTransfer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTransfer, name, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTransfer, name, err)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrDecode, name)
	}
	return string(data), nil
}

func (s *s3Session) Close() error {
	s.client = nil
	return nil
}
