// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // set for S3 compatible stores like R2 or MinIO
}

type S3Client struct {
	C      *s3.Client
	Bucket *string
}

func NewS3(ctx context.Context, c S3Config) (*S3Client, error) {
	if c.Bucket == "" {
		return nil, errors.New("bucket can't be empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(c.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.Region = c.Region
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:      client,
		Bucket: bucket,
	}, nil
}

// Prefixed reads objects under prefix. It satisfies the importer's source.
type Prefixed struct {
	Client *S3Client
	Prefix string
}

// Open fetches the object prefix/name. Missing objects are reported as
// fs.ErrNotExist.
func (p Prefixed) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := path.Join(p.Prefix, name)

	out, err := p.Client.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: p.Client.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s, %w", key, fs.ErrNotExist)
		}

		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}

	return out.Body, nil
}

func (p Prefixed) String() string {
	return "s3://" + aws.ToString(p.Client.Bucket) + "/" + p.Prefix
}
