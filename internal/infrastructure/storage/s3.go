package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/alokemajumder/rrweb-server/internal/config"
)

// S3Client wraps the AWS S3 client for S3 or MinIO.
type S3Client struct {
	client    *s3.Client
	presigner *s3.PresignClient // signs against the external endpoint
	log       zerolog.Logger
}

// NewS3Client builds the write client and the presigner. Signed URLs are
// issued for S3ExternalEndpoint so browsers outside the cluster can use them.
func NewS3Client(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	// Without static keys the default chain applies (env, shared config, IAM role).
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, clientOptions(cfg.S3Endpoint, cfg.S3UsePathStyle))

	externalEndpoint := cfg.S3ExternalEndpoint
	if externalEndpoint == "" {
		externalEndpoint = cfg.S3Endpoint
	}
	externalClient := s3.NewFromConfig(awsCfg, clientOptions(externalEndpoint, cfg.S3UsePathStyle))

	return &S3Client{
		client:    client,
		presigner: s3.NewPresignClient(externalClient),
		log:       log,
	}, nil
}

func clientOptions(endpoint string, pathStyle bool) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	}
}

// PutObject writes body under key. It returns only after S3 acknowledged the
// write.
func (c *S3Client) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// PresignGetObject returns a GET URL for key valid for ttl. Signing is local
// and does not contact S3.
func (c *S3Client) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET: %w", err)
	}
	return req.URL, nil
}

// BucketExists reports whether bucket is reachable with the current
// credentials.
func (c *S3Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

// EnsureBuckets creates any missing bucket. Meant for local MinIO setups.
func (c *S3Client) EnsureBuckets(ctx context.Context, buckets []string) error {
	for _, bucket := range buckets {
		ok, err := c.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if ok {
			continue
		}

		c.log.Info().Str("bucket", bucket).Msg("creating bucket")
		_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			var owned *types.BucketAlreadyOwnedByYou
			if errors.As(err, &owned) {
				continue
			}
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}
	return nil
}
