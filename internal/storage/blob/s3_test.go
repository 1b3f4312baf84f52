package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeS3 is a path-style S3 endpoint holding objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	puts    []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	if parts[0] != f.bucket {
		return respond(http.StatusNotFound, errorXML("NoSuchBucket")), nil
	}

	if len(parts) == 1 || parts[1] == "" {
		return respond(http.StatusOK, ""), nil
	}

	key := parts[1]

	switch req.Method {
	case http.MethodPut:
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}

		if strings.Contains(req.Header.Get("Content-Encoding"), "aws-chunked") {
			body = decodeAWSChunked(body)
		}

		f.objects[key] = body
		f.puts = append(f.puts, key)

		return respond(http.StatusOK, ""), nil
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return respond(http.StatusNotFound, errorXML("NoSuchKey")), nil
		}

		return respond(http.StatusOK, string(body)), nil
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			return respond(http.StatusNotFound, ""), nil
		}

		return respond(http.StatusOK, ""), nil
	default:
		return respond(http.StatusMethodNotAllowed, ""), nil
	}
}

// decodeAWSChunked strips the chunk framing the SDK uses when it sends a
// trailing checksum.
func decodeAWSChunked(body []byte) []byte {
	var out []byte

	for len(body) > 0 {
		line, rest, ok := bytes.Cut(body, []byte("\r\n"))
		if !ok {
			break
		}

		sizeHex, _, _ := bytes.Cut(line, []byte(";"))

		size, err := strconv.ParseInt(string(sizeHex), 16, 64)
		if err != nil || size == 0 || int64(len(rest)) < size {
			break
		}

		out = append(out, rest[:size]...)
		body = bytes.TrimPrefix(rest[size:], []byte("\r\n"))
	}

	return out
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Header:        http.Header{"Content-Type": []string{"application/xml"}},
		Body:          io.NopCloser(bytes.NewBufferString(body)),
		ContentLength: int64(len(body)),
	}
}

func errorXML(code string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><Error><Code>` + code + `</Code><Message>not found</Message></Error>`
}

func newTestS3(t *testing.T, prefix string) (*S3Store, *fakeS3) {
	t.Helper()

	fake := &fakeS3{bucket: "research", objects: make(map[string][]byte)}

	s, err := NewS3(context.Background(), S3Config{
		Bucket:          "research",
		Endpoint:        "http://s3.test.local",
		PathStyle:       true,
		Prefix:          prefix,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: fake},
	})
	require.NoError(t, err)

	return s, fake
}

func TestS3Store(t *testing.T) {
	s, _ := newTestS3(t, "")
	testStoreContract(t, s)
}

func TestS3Store_Prefix(t *testing.T) {
	s, fake := newTestS3(t, "sync/prod")

	require.NoError(t, s.Put(context.Background(), "merged_output.csv", []byte("x")))
	require.Equal(t, []string{"sync/prod/merged_output.csv"}, fake.puts)
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	require.Error(t, err)
}
