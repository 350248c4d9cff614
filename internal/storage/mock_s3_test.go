package storage

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

func newMockS3() *mockS3 {
	return &mockS3{
		buckets: map[string]map[string][]byte{},
	}
}

// mockS3 mimics an S3 blob store for testing.
type mockS3 struct {
	sync.RWMutex
	buckets map[string]map[string][]byte
	s3iface.S3API
}

func (m *mockS3) put(bucket, key, data string) {
	m.Lock()
	defer m.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = map[string][]byte{}
	}
	m.buckets[bucket][key] = []byte(data)
}

func (m *mockS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	m.Lock()
	defer m.Unlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		bucket = map[string][]byte{}
		m.buckets[*in.Bucket] = bucket
	}

	bucket[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return nil, fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}

	data, ok := bucket[*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewBuffer(data)),
	}, nil
}

func (m *mockS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	m.RLock()
	defer m.RUnlock()

	bucket, ok := m.buckets[*in.Bucket]
	if !ok {
		return fmt.Errorf("bucket '%s' does not exist", *in.Bucket)
	}

	prefix := aws.StringValue(in.Prefix)
	delim := aws.StringValue(in.Delimiter)

	var keys []string
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := new(s3.ListObjectsV2Output)
	seen := map[string]bool{}
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				cp := prefix + rest[:i+len(delim)]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		objKey := key
		out.Contents = append(out.Contents, &s3.Object{Key: &objKey})
	}

	fn(out, true)
	return nil
}
