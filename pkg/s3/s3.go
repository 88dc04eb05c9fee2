package s3

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ItfS3 archives uploaded images.
type ItfS3 interface {
	UploadObject(ctx context.Context, id string, filename string, contentType string, body []byte) (string, error)
}

type Options struct {
	Region          string
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type s3Client struct {
	uploader   *s3manager.Uploader
	bucketName string
	prefix     string
}

func New(opts Options) (ItfS3, error) {
	if opts.BucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	sess, err := newSession(opts)
	if err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "uploads"
	}

	return &s3Client{
		uploader:   s3manager.NewUploader(sess),
		bucketName: opts.BucketName,
		prefix:     prefix,
	}, nil
}

func (s *s3Client) UploadObject(ctx context.Context, id string, filename string, contentType string, body []byte) (string, error) {
	output, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(ObjectKey(s.prefix, id, filename)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return output.Location, nil
}

// ObjectKey joins prefix, id and the sanitized client filename as
// "<prefix>/<id>-<name>". The id always survives whatever the client sent.
func ObjectKey(prefix, id, name string) string {
	return path.Join(prefix, fmt.Sprintf("%s-%s", id, SanitizeName(name)))
}

// SanitizeName strips directory parts (either separator) and spaces from a
// client supplied filename.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == ".." {
		name = "image"
	}
	return name
}

func newSession(opts Options) (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return sess, nil
}
