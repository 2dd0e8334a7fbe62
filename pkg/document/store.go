package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store loads and saves raw documents by key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// FileStore stores documents on the local filesystem. Keys are paths
// relative to Dir, or absolute paths.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(key string) string {
	if filepath.IsAbs(key) || s.Dir == "" {
		return key
	}
	return filepath.Join(s.Dir, key)
}

// Load reads the file named by key.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(s.path(key))
}

// Save writes data to the file named by key, creating parent directories.
func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// S3API is the subset of the S3 client used by S3Store.
// *s3.Client satisfies it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores documents in an S3 bucket.
//
// Example usage:
//
//	client := document.NewS3Client(document.S3Options{Region: "us-east-1"})
//	store := document.NewS3Store(client, "my-bucket", "states/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates a store for bucket. Keys are prefixed with prefix.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Load fetches the object at key.
func (s *S3Store) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", s.bucket, s.prefix+key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Save uploads data to key.
func (s *S3Store) Save(ctx context.Context, key string, data []byte) error {
	contentType := "application/json"
	if FormatFromPath(key) == YAML {
		contentType = "application/yaml"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.prefix + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", s.bucket, s.prefix+key, err)
	}
	return nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	// Region is the AWS region. Default: AWS_REGION, then us-east-1.
	Region string

	// Endpoint overrides the service endpoint and enables path-style
	// addressing, for S3-compatible stores.
	Endpoint string
}

// NewS3Client creates an S3 client. Credentials come from the
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN variables;
// without them requests are anonymous.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	o := s3.Options{
		Region:      region,
		Credentials: envCredentials(),
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	}
	return s3.New(o)
}

func envCredentials() aws.CredentialsProvider {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "Environment",
		}, nil
	}))
}

// Open returns the store and key for a source string. A source of the form
// s3://bucket/key uses client, which must not be nil; a plain path or a
// file:// URL uses the filesystem.
func Open(source string, client S3API) (Store, string, error) {
	if !strings.Contains(source, "://") {
		return NewFileStore(""), source, nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
	}
	switch u.Scheme {
	case "file":
		return NewFileStore(""), u.Path, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("%w: %q needs a bucket and a key", ErrUnsupportedSource, source)
		}
		if client == nil {
			return nil, "", fmt.Errorf("%w: no S3 client for %q", ErrUnsupportedSource, source)
		}
		return NewS3Store(client, u.Host, ""), key, nil
	}
	return nil, "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
}

// Load opens source, reads it and decodes it in the format given by its
// extension.
func Load(ctx context.Context, source string, client S3API) (any, error) {
	store, key, err := Open(source, client)
	if err != nil {
		return nil, err
	}
	data, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return Decode(data, FormatFromPath(key))
}
