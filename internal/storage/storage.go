// Package storage wraps an S3-compatible bucket (Supabase storage, MinIO,
// AWS S3) behind a small Uploader interface so handlers and tests do not
// depend on the AWS SDK directly.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// Uploader puts an object into the bucket and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Config carries the connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint      string // empty for AWS proper
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// S3Store implements Uploader on top of the AWS SDK upload manager.
type S3Store struct {
	bucket        string
	publicBaseURL string
	uploader      *s3manager.Uploader
}

// NewS3Store builds the session once; the pool behind it is reused for the
// lifetime of the process.
func NewS3Store(cfg Config) *S3Store {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		// Supabase and MinIO do not speak virtual-hosted-style addressing.
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess := session.Must(session.NewSession(awsCfg))

	return &S3Store{
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		uploader:      s3manager.NewUploader(sess),
	}
}

// Upload stores body under key with a public-read ACL and returns the URL
// the object is reachable at.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return out.Location, nil
}

// ObjectKey builds a collision-free key under folder, keeping the original
// file extension.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	return path.Join(folder, name)
}

// IsUnreachable reports whether err looks like the storage endpoint could not
// be reached at all, as opposed to the request being rejected. Callers use
// this to decide between degrading gracefully and failing the request.
func IsUnreachable(err error) bool {
	for err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) {
			return true
		}

		var aerr awserr.Error
		if errors.As(err, &aerr) {
			switch aerr.Code() {
			case request.ErrCodeRequestError, request.CanceledErrorCode:
				orig := aerr.OrigErr()
				if orig == nil {
					return true
				}
				err = orig
				continue
			default:
				return false
			}
		}

		err = errors.Unwrap(err)
	}
	return false
}
