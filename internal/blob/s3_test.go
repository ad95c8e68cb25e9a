package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style S3 calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func empty(status int, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: header, Body: io.NopCloser(bytes.NewReader(nil))}
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	lastModified := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat)

	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2025-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{"Content-Type": {"application/xml"}},
			Body: io.NopCloser(strings.NewReader(b.String()))}, nil
	}

	switch req.Method {
	case http.MethodHead:
		body, ok := f.objects[key]
		if !ok {
			return empty(http.StatusNotFound, nil), nil
		}
		return empty(http.StatusOK, http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Last-Modified":  {lastModified},
		}), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = dechunk(body)
		}
		f.objects[key] = body
		return empty(http.StatusOK, http.Header{"ETag": {`"etag"`}}), nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return empty(http.StatusNotFound, nil), nil
		}
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{
			"Content-Length": {strconv.Itoa(len(body))},
			"Last-Modified":  {lastModified},
		}, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}, nil
	}
	return empty(http.StatusNotImplemented, nil), nil
}

// dechunk reads an aws-chunked payload: <hex size>[;ext]\r\n<data>\r\n ... 0\r\n
func dechunk(b []byte) []byte {
	var out []byte
	for len(b) > 0 {
		line, rest, ok := bytes.Cut(b, []byte("\r\n"))
		if !ok {
			break
		}
		sizeHex, _, _ := bytes.Cut(line, []byte(";"))
		n, err := strconv.ParseInt(string(sizeHex), 16, 64)
		if err != nil || n == 0 || int64(len(rest)) < n {
			break
		}
		out = append(out, rest[:n]...)
		b = bytes.TrimPrefix(rest[n:], []byte("\r\n"))
	}
	return out
}

func newFakeS3(t *testing.T) (*S3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	return &S3{client: client, bucket: "bench"}, fake
}

func TestS3PutGetList(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeS3(t)
	assert.Equal(t, DriverS3, store.Driver())

	info, err := store.Put(ctx, "results/a.json", strings.NewReader(`{"runs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "results/a.json", info.Key)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, `{"runs":[]}`, string(fake.objects["results/a.json"]))

	_, err = store.Put(ctx, "results/a.json", strings.NewReader("again"))
	assert.ErrorIs(t, err, ErrExists)

	_, err = store.Put(ctx, "results/b.json", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = store.Put(ctx, "logs/x.txt", strings.NewReader("x"))
	require.NoError(t, err)

	rc, got, err := store.Get(ctx, "results/a.json")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"runs":[]}`, string(body))
	assert.Equal(t, int64(11), got.Size)

	list, err := store.List(ctx, ResultsPrefix)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "results/a.json", list[0].Key)
	assert.Equal(t, int64(1), list[1].Size)
}

func TestS3GetMissing(t *testing.T) {
	store, _ := newFakeS3(t)
	_, _, err := store.Get(context.Background(), "results/nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}
