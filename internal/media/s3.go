package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-accounts/internal/config"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps images in an S3-compatible bucket (AWS or MinIO). Objects are
// keyed "<prefix>/<publicID><ext>" and served from "<publicBase>/<key>".
type S3Store struct {
	client     s3API
	bucket     string
	prefix     string
	publicBase string
	maxBytes   int64
}

// NewS3Store builds an S3 client from cfg. Static credentials are used when
// an access key is configured, otherwise the default AWS chain applies.
func NewS3Store(ctx context.Context, cfg config.MediaConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client s3API, cfg config.MediaConfig) *S3Store {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3Store{
		client:     client,
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: base,
		maxBytes:   cfg.MaxUploadBytes,
	}
}

func (s *S3Store) key(publicID string) string {
	if s.prefix == "" {
		return publicID
	}
	return s.prefix + "/" + publicID
}

// Upload validates f and stores it under a fresh public id.
func (s *S3Store) Upload(ctx context.Context, f *File) (Asset, error) {
	if err := f.Validate(s.maxBytes); err != nil {
		return Asset{}, err
	}
	// Buffer so the SDK can sign a seekable body, and so the limit holds
	// even when the declared size was wrong.
	r := f.Body
	if s.maxBytes > 0 {
		r = io.LimitReader(f.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Asset{}, fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return Asset{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Asset{}, ErrEmptyFile
	}

	id := uuid.NewString()
	key := s.key(id) + strings.ToLower(path.Ext(f.Name))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(f.ContentType),
	})
	if err != nil {
		return Asset{}, fmt.Errorf("put object: %w", err)
	}
	return Asset{URL: s.publicBase + "/" + key, PublicID: id}, nil
}

// Delete removes every object stored under publicID, whatever its
// extension. Deleting an unknown id is not an error.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	base := s.key(publicID)
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(base),
	})
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}
	for _, obj := range out.Contents {
		k := aws.ToString(obj.Key)
		if k != base && !strings.HasPrefix(k, base+".") {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		}); err != nil {
			return fmt.Errorf("delete object %s: %w", k, err)
		}
	}
	return nil
}
