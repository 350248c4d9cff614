package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const (
	defaultS3Region = "us-east-1"

	// maxS3Keys is the page size for list calls.
	maxS3Keys = 1000
)

// S3Store is an S3 backed Store. The container is the bucket name.
type S3Store struct {
	s3 s3iface.S3API
}

// S3Store must implement the Store interface
var _ Store = (*S3Store)(nil)

func NewS3Store(api s3iface.S3API) *S3Store {
	return &S3Store{s3: api}
}

// NewS3StoreFromConnectionString configures a client from a connection string
// such as "AccessKeyId=..;SecretAccessKey=..;Region=eu-west-2". Without keys
// the default AWS credential chain is used.
func NewS3StoreFromConnectionString(connString string) (*S3Store, error) {
	params, err := ParseConnectionString(connString)
	if err != nil {
		return nil, err
	}

	cfg := aws.NewConfig().WithRegion(defaultS3Region)
	if region := params["region"]; region != "" {
		cfg = cfg.WithRegion(region)
	}
	if endpoint := params["endpoint"]; endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	if v := params["forcepathstyle"]; v != "" {
		force, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ForcePathStyle %q: %w", v, err)
		}
		cfg = cfg.WithS3ForcePathStyle(force)
	}
	if id := params["accesskeyid"]; id != "" {
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(id, params["secretaccesskey"], params["sessiontoken"]))
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create AWS session: %w", err)
	}
	return NewS3Store(s3.New(sess)), nil
}

func (s *S3Store) Download(ctx context.Context, bucket, dir, name string) ([]byte, error) {
	key := objectKey(dir, name)
	out, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve 's3://%s/%s': %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body from S3 response for 's3://%s/%s': %w", bucket, key, err)
	}
	return data, nil
}

// ListFolders returns the common prefixes directly under prefix, without the
// prefix and without the trailing slash.
func (s *S3Store) ListFolders(ctx context.Context, bucket, prefix string) ([]string, error) {
	prefix = folderPrefix(prefix)

	var folders []string
	pageFn := func(out *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(cp.Prefix), prefix), "/")
			if name != "" {
				folders = append(folders, name)
			}
		}
		return true
	}

	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int64(maxS3Keys),
	}, pageFn)
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 for 's3://%s/%s': %w", bucket, prefix, err)
	}
	return folders, nil
}

// Upload overwrites any existing object under the same key.
func (s *S3Store) Upload(ctx context.Context, content []byte, bucket, dir, name string) error {
	key := objectKey(dir, name)
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload 's3://%s/%s': %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) Close(context.Context) error { return nil }

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
