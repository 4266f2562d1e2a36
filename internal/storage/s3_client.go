package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxAttachmentBytes caps a single chat attachment upload.
const MaxAttachmentBytes = 25 << 20

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PresignTTL time.Duration
}

// Client issues presigned URLs so attachment bytes never pass through the API
// server: clients PUT directly to the bucket and send the object key in the
// message.
type Client struct {
	cfg     S3Config
	s3      *s3.Client
	presign *s3.PresignClient
}

func NewClient(ctx context.Context, cfg S3Config) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 region and bucket are required", bazaar_errors.ErrInvalidInput)
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if parsed, err := url.Parse(endpoint); err == nil {
			endpoint = parsed.String()
		}
		opts = append(opts, config.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				if service == s3.ServiceID {
					return aws.Endpoint{URL: endpoint, SigningRegion: cfg.Region}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return &Client{
		cfg:     cfg,
		s3:      s3Client,
		presign: s3.NewPresignClient(s3Client),
	}, nil
}

// AttachmentKey builds a collision-free object key scoped to the uploader.
// The original filename survives only as the extension.
func AttachmentKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("attachments/%s/%s%s", userID, uuid.New(), ext)
}

// PresignUpload returns a presigned PUT URL plus the headers the client must
// send verbatim for the signature to match.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string, sizeBytes int64) (string, map[string]string, error) {
	if key == "" {
		return "", nil, fmt.Errorf("%w: object key is required", bazaar_errors.ErrInvalidInput)
	}
	if contentType == "" {
		return "", nil, fmt.Errorf("%w: content type is required", bazaar_errors.ErrInvalidInput)
	}
	if sizeBytes <= 0 || sizeBytes > MaxAttachmentBytes {
		return "", nil, fmt.Errorf("%w: file size must be between 1 and %d bytes", bazaar_errors.ErrInvalidInput, MaxAttachmentBytes)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(sizeBytes),
	}
	presigned, err := c.presign.PresignPutObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = c.cfg.PresignTTL
	})
	if err != nil {
		return "", nil, err
	}

	headers := map[string]string{
		"Content-Type":   contentType,
		"Content-Length": strconv.FormatInt(sizeBytes, 10),
	}
	return presigned.URL, headers, nil
}

// PresignDownload returns a time-limited GET URL for a stored attachment.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: object key is required", bazaar_errors.ErrInvalidInput)
	}
	presigned, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = c.cfg.PresignTTL
	})
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}
