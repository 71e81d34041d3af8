package s3reader

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RavuAlHemio/zmx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
)

// testClient implements Client by slicing into its in-memory data.
//
// calls and heads keep track of input parameters for asserting.
type testClient struct {
	data []byte

	// mu guards write access to calls and heads.
	mu    sync.Mutex
	calls []s3.GetObjectInput
	heads []s3.HeadObjectInput
}

func randomTestClient(n int) *testClient {
	data := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		panic(err)
	}

	return &testClient{data: data}
}

func (c *testClient) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = nil
}

func (c *testClient) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *input)
	c.mu.Unlock()

	rangeBytes := strings.TrimPrefix(aws.ToString(input.Range), "bytes=")
	values := strings.SplitN(rangeBytes, "-", 2)
	if len(values) != 2 {
		return nil, fmt.Errorf("invalid range: %s", aws.ToString(input.Range))
	}

	i, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start byte in range `%s`: %w", rangeBytes, err)
	}

	j, err := strconv.ParseInt(values[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid end byte in range `%s`: %w", rangeBytes, err)
	}

	// a real S3 would clamp the end but tests want to know about unclamped ranges.
	if j >= int64(len(c.data)) {
		return nil, fmt.Errorf("range `%s` ends past the %d-byte object", rangeBytes, len(c.data))
	}

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(c.data[i : j+1])),
	}, nil
}

func (c *testClient) HeadObject(_ context.Context, input *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.mu.Lock()
	c.heads = append(c.heads, *input)
	c.mu.Unlock()

	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(c.data))),
	}, nil
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)

	r, err := New(ctx, tc, "my-bucket", "app.zip")
	assert.NoErrorf(t, err, "New(...) error = %v", err)
	assert.Equal(t, int64(1024), r.Size())
	assert.Equalf(t, 1, len(tc.heads), "New(...) should have made only 1 HeadObject call; got %d", len(tc.heads))
	assert.Empty(t, tc.calls)
}

func TestReader_Read(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)
	r := NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)))

	// a single read to get all data.
	buf := make([]byte, len(tc.data))
	assertReadEqual(t, r, buf, tc.data)
	assert.Equalf(t, 1, len(tc.calls), "Read(buf) should have made only 1 GetObject call; got %d", len(tc.calls))

	// attempting to read at end of file never reaches S3.
	tc.clear()
	n, err := r.Read(buf)
	assert.Equalf(t, io.EOF, err, "Read(buf) error should be io.EOF; got %v", err)
	assert.Equalf(t, 0, n, "Read(buf) should have returned 0 bytes; got %d", n)
	assert.Emptyf(t, tc.calls, "Read(buf) should not have made any GetObject calls; got %d", len(tc.calls))

	// read the first 100 bytes then the next 100 bytes.
	// because the buffer holds 200 bytes there ends up being only 1 GetObject call.
	tc.clear()
	r = NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)), WithBufferSize(200))
	buf = make([]byte, 100)
	assertReadEqual(t, r, buf, tc.data[:100])
	assertReadEqual(t, r, buf, tc.data[100:200])
	assert.Equalf(t, 1, len(tc.calls), "Read(buf) should have made only 1 GetObject call; got %d", len(tc.calls))

	// now because the buffer is small, the same reads produce 2 GetObject calls.
	tc.clear()
	r = NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)), WithBufferSize(10))
	assertReadEqual(t, r, buf, tc.data[:100])
	assertReadEqual(t, r, buf, tc.data[100:200])
	assert.Equalf(t, 2, len(tc.calls), "Read(buf) should have made 2 GetObject calls; got %d", len(tc.calls))
}

func TestReader_Seek(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)
	r := NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)), WithBufferSize(200))

	// finding the size of the object must not download anything.
	pos, err := r.Seek(0, io.SeekEnd)
	assert.NoErrorf(t, err, "Seek(0, io.SeekEnd) error = %v", err)
	assert.Equal(t, int64(1024), pos)

	n, err := r.Read(make([]byte, 4))
	assert.Equalf(t, io.EOF, err, "Read at end of file error should be io.EOF; got %v", err)
	assert.Zero(t, n)
	assert.Emptyf(t, tc.calls, "reading at end of file should not have made any GetObject calls; got %d", len(tc.calls))

	// a tail read the way an archive listing starts.
	pos, err = r.Seek(-22, io.SeekEnd)
	assert.NoErrorf(t, err, "Seek(-22, io.SeekEnd) error = %v", err)
	assert.Equal(t, int64(1002), pos)

	buf := make([]byte, 22)
	assertReadEqual(t, r, buf, tc.data[1002:])
	assert.Equalf(t, 1, len(tc.calls), "Read(buf) should have made only 1 GetObject call; got %d", len(tc.calls))

	// a short forward seek stays within the buffered window.
	_, err = r.Seek(0, io.SeekStart)
	assert.NoErrorf(t, err, "Seek(0, io.SeekStart) error = %v", err)

	tc.clear()
	buf = make([]byte, 50)
	assertReadEqual(t, r, buf, tc.data[:50])

	pos, err = r.Seek(100, io.SeekStart)
	assert.NoErrorf(t, err, "Seek(100, io.SeekStart) error = %v", err)
	assert.Equal(t, int64(100), pos)

	assertReadEqual(t, r, buf, tc.data[100:150])
	assert.Equalf(t, 1, len(tc.calls), "both reads should have shared 1 GetObject call; got %d", len(tc.calls))

	// seeking before the start of the object fails.
	_, err = r.Seek(-1, io.SeekStart)
	assert.Error(t, err)
}

func TestReader_ReadAt(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)
	r := NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)))

	// a simple offset read.
	buf := make([]byte, 100)
	n, err := r.ReadAt(buf, 42)
	assert.NoErrorf(t, err, "ReadAt(buf, 42) error = %v", err)
	assert.Equalf(t, len(buf), n, "ReadAt(buf, 42) returns only %d bytes; expected %d", n, len(buf))
	assert.Equal(t, tc.data[42:142], buf)
	assert.Equalf(t, 1, len(tc.calls), "ReadAt(buf, 42) should have made only 1 GetObject call; got %d", len(tc.calls))

	// ReadAt must not have advanced the read position.
	assertReadEqual(t, r, make([]byte, 10), tc.data[:10])

	// reading near the end of the object clamps the range.
	tc.clear()
	n, err = r.ReadAt(buf, 1020)
	assert.Equalf(t, io.EOF, err, "ReadAt(buf, 1020) error should be io.EOF; got %v", err)
	assert.Equalf(t, 4, n, "ReadAt(buf, 1020) returns %d bytes; expected 4", n)
	assert.Equal(t, tc.data[1020:], buf[:4])
	assert.Equalf(t, 1, len(tc.calls), "ReadAt(buf, 1020) should have made only 1 GetObject call; got %d", len(tc.calls))

	// reading at or past the end of the object never reaches S3.
	tc.clear()
	n, err = r.ReadAt(buf, 1024)
	assert.Equalf(t, io.EOF, err, "ReadAt(buf, 1024) error should be io.EOF; got %v", err)
	assert.Zero(t, n)
	assert.Empty(t, tc.calls)
}

func TestReader_WithExpectedBucketOwner(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(64)

	r, err := New(ctx, tc, "my-bucket", "app.zip", WithExpectedBucketOwner(aws.String("123456789012")))
	assert.NoErrorf(t, err, "New(...) error = %v", err)

	if assert.Equal(t, 1, len(tc.heads)) {
		assert.Equal(t, "123456789012", aws.ToString(tc.heads[0].ExpectedBucketOwner))
	}

	assertReadEqual(t, r, make([]byte, 64), tc.data)
	if assert.Equal(t, 1, len(tc.calls)) {
		assert.Equal(t, "123456789012", aws.ToString(tc.calls[0].ExpectedBucketOwner))
	}
}

func TestReader_WithProgressLogger(t *testing.T) {
	ctx := context.Background()
	tc := randomTestClient(1024)

	var logs bytes.Buffer
	r := NewWithSize(ctx, tc, "my-bucket", "app.zip", int64(len(tc.data)), WithProgressLogger(log.New(&logs, "", 0), time.Second))

	data, err := io.ReadAll(r)
	assert.NoErrorf(t, err, "io.ReadAll(r) error = %v", err)
	assert.Equal(t, tc.data, data)
	assert.Equal(t, "fetched 1.0 KiB of 1.0 KiB so far\n", logs.String())
}

// TestReader_ListArchive lists a remote ZIP archive end to end and verifies only the archive tail is downloaded.
func TestReader_ListArchive(t *testing.T) {
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for _, f := range []struct{ name, body string }{
		{"a.txt", "hello world\n"},
		{"bin/run", "#!/bin/sh\necho hi\n"},
	} {
		w, err := zw.Create(f.name)
		assert.NoErrorf(t, err, "Create(%q) error = %v", f.name, err)
		_, err = w.Write([]byte(f.body))
		assert.NoErrorf(t, err, "Write() error = %v", err)
	}
	err := zw.Close()
	assert.NoErrorf(t, err, "Close() error = %v", err)

	tc := &testClient{data: archive.Bytes()}
	r := NewWithSize(context.Background(), tc, "my-bucket", "app.zip", int64(archive.Len()), WithBufferSize(64))

	entries, err := zmx.List(r)
	assert.NoErrorf(t, err, "List() error = %v", err)
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "a.txt", zmx.DecodeName(entries[0].Name))
		assert.Equal(t, "bin/run", zmx.DecodeName(entries[1].Name))
	}

	// every downloaded range lies within the central directory and end-of-directory records.
	assert.NotEmpty(t, tc.calls)
	for _, call := range tc.calls {
		assert.GreaterOrEqualf(t, rangeStart(t, call), int64(entries[0].Offset), "GetObject fetched range %q from the file data", aws.ToString(call.Range))
	}
}

func rangeStart(t *testing.T, input s3.GetObjectInput) int64 {
	t.Helper()

	values := strings.SplitN(strings.TrimPrefix(aws.ToString(input.Range), "bytes="), "-", 2)
	if !assert.Len(t, values, 2) {
		return 0
	}

	i, err := strconv.ParseInt(values[0], 10, 64)
	assert.NoErrorf(t, err, "invalid range `%s`", aws.ToString(input.Range))
	return i
}

func assertReadEqual(t *testing.T, src io.Reader, dst []byte, expected []byte) {
	t.Helper()

	n, err := src.Read(dst)
	assert.NoErrorf(t, err, "Read error = %v", err)
	assert.Equalf(t, len(dst), n, "Read returns only %d bytes; expected %d", n, len(dst))
	assert.Equal(t, expected, dst, "Read returns data not equal expected")
}
