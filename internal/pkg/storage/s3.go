package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures the S3 driver. Endpoint targets S3 compatible services
// such as LocalStack; Region then defaults to us-east-1.
type S3Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
	// SSE is the server side encryption applied to every upload: "" (bucket
	// default), "AES256" or "aws:kms". KMSKeyID selects the key for aws:kms.
	SSE      string
	KMSKeyID string
}

// S3Adapter stores objects in S3.
type S3Adapter struct {
	client  *s3.Client
	presign *s3.PresignClient
	sse     types.ServerSideEncryption
	kmsKey  string
}

// NewS3 falls back to the default AWS credential chain without static keys.
func NewS3(ctx context.Context, opts S3Options) (*S3Adapter, error) {
	region := opts.Region
	if region == "" && opts.Endpoint != "" {
		region = "us-east-1"
	}

	var load []func(*awsconfig.LoadOptions) error
	if region != "" {
		load = append(load, awsconfig.WithRegion(region))
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		load = append(load, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken)))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, load...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Adapter{
		client:  client,
		presign: s3.NewPresignClient(client),
		sse:     types.ServerSideEncryption(opts.SSE),
		kmsKey:  opts.KMSKeyID,
	}, nil
}

func (s *S3Adapter) object(bucket, key string) (*string, *string) {
	return aws.String(bucket), aws.String(key)
}

func (s *S3Adapter) Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	in := &s3.PutObjectInput{Body: r, Metadata: opts.Metadata}
	in.Bucket, in.Key = s.object(bucket, key)
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.Size > 0 {
		in.ContentLength = aws.Int64(opts.Size)
	}
	if s.sse != "" {
		in.ServerSideEncryption = s.sse
		if s.sse == types.ServerSideEncryptionAwsKms && s.kmsKey != "" {
			in.SSEKMSKeyId = aws.String(s.kmsKey)
		}
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: s3 put %s/%s: %w", bucket, key, err)
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        opts.Size,
		ETag:        aws.ToString(out.ETag),
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
	}, nil
}

func (s *S3Adapter) Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	in := &s3.GetObjectInput{}
	in.Bucket, in.Key = s.object(bucket, key)

	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		return nil, ObjectInfo{}, s3Err(err)
	}

	return out.Body, ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ETag:        aws.ToString(out.ETag),
		ContentType: aws.ToString(out.ContentType),
		Metadata:    out.Metadata,
		UpdatedAt:   aws.ToTime(out.LastModified),
	}, nil
}

// Delete succeeds for missing keys, as S3 itself does.
func (s *S3Adapter) Delete(ctx context.Context, bucket, key string) error {
	in := &s3.DeleteObjectInput{}
	in.Bucket, in.Key = s.object(bucket, key)

	_, err := s.client.DeleteObject(ctx, in)
	return err
}

func (s *S3Adapter) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	in := &s3.GetObjectInput{}
	in.Bucket, in.Key = s.object(bucket, key)

	req, err := s.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign: %w", err)
	}
	return req.URL, nil
}

func (*S3Adapter) Close() error { return nil }

func s3Err(err error) error {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return ErrObjectNotFound
	}
	return err
}
