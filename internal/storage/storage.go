// Package storage wraps the S3-compatible object store (Cloudflare R2) used
// for resume and certificate binaries.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds the object storage connection parameters.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// ConfigFromEnv reads the R2 configuration from environment variables.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:      os.Getenv("R2_ENDPOINT"),
		AccessKey:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
		Bucket:        os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL: os.Getenv("R2_PUBLIC_BASE_URL"),
	}
}

// Configured reports whether enough of the config is present to build a client.
func (c *Config) Configured() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

// Client is an object storage client bound to one bucket.
type Client struct {
	client *s3.S3
	cfg    *Config
}

// NewClient builds an object storage client, or returns an error when the
// configuration is incomplete.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("object storage is not configured")
	}

	s3Config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String("auto"),
		S3ForcePathStyle: aws.Bool(true),
	}

	sess, err := session.NewSession(s3Config)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: s3.New(sess),
		cfg:    cfg,
	}, nil
}

// Upload writes an object under the given key.
func (c *Client) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := c.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// Exists reports whether an object is still present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) bool {
	_, err := c.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err == nil
}

// Presign returns a time-limited download URL for an object.
func (c *Client) Presign(key string, expiry time.Duration) (string, error) {
	req, _ := c.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	})
	return req.Presign(expiry)
}

// PublicURL builds the stable public address of an object.
func (c *Client) PublicURL(key string) string {
	base := c.cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimSuffix(c.cfg.Endpoint, "/"), c.cfg.Bucket)
	}
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(base, "/"), key)
}
