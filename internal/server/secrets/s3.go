// Package secrets fetches the token signing secret from S3-compatible
// object storage, so it does not have to live in config files or flags.
package secrets

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxSecretSize bounds how much of the object is read.
const maxSecretSize = 64 << 10

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	Key          string
}

// LoadFromS3 downloads the object at opts.Bucket/opts.Key and returns its
// contents with surrounding whitespace removed.
func LoadFromS3(ctx context.Context, opts S3Options) ([]byte, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", opts.Bucket, opts.Key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxSecretSize))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", opts.Bucket, opts.Key, err)
	}
	return bytes.TrimSpace(b), nil
}
