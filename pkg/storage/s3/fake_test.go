package s3

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeClient is an in-process S3 object store implementing Client.
//
// It models one bucket namespace per name and supports the prefix/delimiter
// subset of ListObjectsV2 used by Directory.List, with pagination driven by
// pageSize so the paginator path is exercised.
type fakeClient struct {
	mu       sync.Mutex
	buckets  map[string]map[string][]byte
	pageSize int

	// calls counts operations by name.
	calls map[string]int
}

func newFakeClient(buckets ...string) *fakeClient {
	c := &fakeClient{
		buckets:  make(map[string]map[string][]byte),
		pageSize: 2,
		calls:    make(map[string]int),
	}
	for _, b := range buckets {
		c.buckets[b] = make(map[string][]byte)
	}
	return c
}

func (c *fakeClient) record(op string) {
	c.calls[op]++
}

func (c *fakeClient) bucket(name *string) (map[string][]byte, error) {
	b, ok := c.buckets[aws.ToString(name)]
	if !ok {
		return nil, &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	return b, nil
}

func (c *fakeClient) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("HeadBucket")

	if _, err := c.bucket(in.Bucket); err != nil {
		return nil, &types.NotFound{Message: aws.String("bucket not found")}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (c *fakeClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("HeadObject")

	b, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	data, ok := b[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{Message: aws.String("not found")}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (c *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("GetObject")

	b, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	data, ok := b[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	// Snapshot so later writes do not affect an open reader.
	body := bytes.Clone(data)
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (c *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var data []byte
	if in.Body != nil {
		var err error
		if data, err = io.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("PutObject")

	b, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	b[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("CopyObject")

	source, err := url.PathUnescape(aws.ToString(in.CopySource))
	if err != nil {
		return nil, err
	}
	srcBucket, srcKey, _ := strings.Cut(source, "/")

	from, err := c.bucket(&srcBucket)
	if err != nil {
		return nil, err
	}
	data, ok := from[srcKey]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}

	to, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	to[aws.ToString(in.Key)] = bytes.Clone(data)
	return &s3.CopyObjectOutput{}, nil
}

func (c *fakeClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DeleteObject")

	b, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}
	delete(b, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ListObjectsV2")

	b, err := c.bucket(in.Bucket)
	if err != nil {
		return nil, err
	}

	prefix := aws.ToString(in.Prefix)
	delimiter := aws.ToString(in.Delimiter)

	keys := make([]string, 0, len(b))
	for key := range b {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if delimiter != "" && strings.Contains(key[len(prefix):], delimiter) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	start := 0
	if token := aws.ToString(in.ContinuationToken); token != "" {
		start = sort.SearchStrings(keys, token)
	}
	end := min(start+c.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(end < len(keys)),
	}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(b[key]))),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

// put stores an object directly, bypassing the Directory.
func (c *fakeClient) put(bucket, key, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket][key] = []byte(data)
}

// object returns an object's content and whether it exists.
func (c *fakeClient) object(bucket, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.buckets[bucket][key]
	return string(data), ok
}
