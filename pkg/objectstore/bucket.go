package objectstore

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/npclaudiu/devenv/pkg/consts"
	"github.com/npclaudiu/devenv/pkg/poll"
	"github.com/pkg/errors"
)

// BucketAPI is the subset of *s3.Client used to ensure a bucket exists.
type BucketAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// NewS3Client builds an S3 client for the gateway described by cfg, using
// static credentials and path-style addressing.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load S3 client configuration")
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
		o.Retryer = aws.NopRetryer{}
	}), nil
}

// EnsureBucket makes sure bucket exists, creating it when needed. The gateway
// may still be starting, so head-then-create is retried under the bucket
// poll policy. A bucket already owned by the caller counts as success.
func EnsureBucket(ctx context.Context, api BucketAPI, poller Poller, bucket string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	policy := poll.Policy{Interval: consts.BucketPollInterval, MaxAttempts: consts.BucketPollAttempts}

	var lastErr error
	_, err := poller.Until(ctx, "bucket "+bucket, policy, func(ctx context.Context) (bool, error) {
		if _, err := api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
			return true, nil
		}

		_, err := api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
		if err == nil || alreadyOwned(err) {
			logger.Debug("bucket ready", "bucket", bucket)
			return true, nil
		}

		lastErr = err
		return false, err
	})
	if err != nil && lastErr != nil && errors.Is(err, poll.ErrTimeout) {
		return errors.Wrapf(err, "last error: %v", lastErr)
	}

	return err
}

func alreadyOwned(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	return errors.As(err, &owned)
}
