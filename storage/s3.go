package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Document.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Document implements Document backed by a single S3 object.
type S3Document struct {
	bucket string
	key    string
	s3     S3API
}

func NewS3Document(client S3API, bucket, key string) *S3Document {
	return &S3Document{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

func (d *S3Document) Load(ctx context.Context) ([]byte, error) {
	resp, err := d.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", d.bucket, d.key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object s3://%s/%s: %w", d.bucket, d.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (d *S3Document) Save(ctx context.Context, data []byte) error {
	_, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object s3://%s/%s: %w", d.bucket, d.key, err)
	}
	return nil
}
