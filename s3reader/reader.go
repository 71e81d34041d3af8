// Package s3reader provides random access to an S3 object through ranged GetObject calls.
//
// Reading the central directory of a remote ZIP archive only ever touches the tail of the object, so a Reader makes
// it possible to list a multi-GiB archive with a handful of small downloads.
package s3reader

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Reader uses ranged GetObject to implement random access to an S3 object.
//
// Reader is not safe for concurrent use.
type Reader interface {
	io.ReadSeekCloser
	io.ReaderAt

	// Size returns the total size of the object in bytes.
	Size() int64
}

// GetObjectClient abstracts the API that Reader needs once the object's size is known.
type GetObjectClient interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Client abstracts the APIs that New needs.
type Client interface {
	GetObjectClient
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises New and NewWithSize.
type Options struct {
	// BufferSize is the minimum number of bytes a single GetObject retrieves, default 64 KiB.
	//
	// Reads are served from an internal buffer that is refilled in BufferSize batches so that many small sequential
	// reads don't translate into many small GetObject calls. A Read larger than BufferSize fetches exactly the
	// requested amount.
	BufferSize int

	// ModifyGetObjectInput can be used to modify the GetObject input parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the GetObject call. The Range parameter must be passed through unchanged.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can be used to modify the HeadObject input parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the HeadObject call. This value is only used by New.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput

	observe func(fetched, size int64)
}

// WithBufferSize changes Options.BufferSize.
func WithBufferSize(size int) func(*Options) {
	return func(opts *Options) {
		opts.BufferSize = size
	}
}

// WithExpectedBucketOwner adds the given bucket owner to every GetObject and HeadObject call.
//
// A nil owner leaves the inputs unchanged.
func WithExpectedBucketOwner(owner *string) func(*Options) {
	return func(opts *Options) {
		if owner == nil {
			return
		}

		opts.ModifyGetObjectInput = func(input *s3.GetObjectInput) *s3.GetObjectInput {
			input.ExpectedBucketOwner = owner
			return input
		}
		opts.ModifyHeadObjectInput = func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			input.ExpectedBucketOwner = owner
			return input
		}
	}
}

const defaultBufferSize = 64 * 1024

func newOptions(optFns ...func(*Options)) *Options {
	opts := &Options{
		BufferSize: defaultBufferSize,
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	return opts
}

// New returns a Reader with the given bucket and key, determining the object's size with one HeadObject call.
//
// ctx applies to the HeadObject call as well as every later GetObject call made by the Reader.
func New(ctx context.Context, client Client, bucket, key string, optFns ...func(*Options)) (Reader, error) {
	opts := newOptions(optFns...)

	headObjectOutput, err := client.HeadObject(ctx, opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}))
	if err != nil {
		return nil, fmt.Errorf("determine object size error: %w", err)
	}

	return newReader(ctx, client, bucket, key, aws.ToInt64(headObjectOutput.ContentLength), opts), nil
}

// NewWithSize returns a Reader with the given bucket, key, and known object size.
func NewWithSize(ctx context.Context, client GetObjectClient, bucket, key string, size int64, optFns ...func(*Options)) Reader {
	return newReader(ctx, client, bucket, key, size, newOptions(optFns...))
}

func newReader(ctx context.Context, client GetObjectClient, bucket, key string, size int64, opts *Options) *reader {
	return &reader{
		client:               client,
		ctx:                  ctx,
		bucket:               bucket,
		key:                  key,
		size:                 size,
		bufferSize:           int64(opts.BufferSize),
		modifyGetObjectInput: opts.ModifyGetObjectInput,
		observe:              opts.observe,
	}
}

type reader struct {
	client               GetObjectClient
	ctx                  context.Context
	bucket, key          string
	size                 int64
	bufferSize           int64
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
	observe              func(fetched, size int64)

	// buf holds object bytes [off, off+buf.Len()) so small sequential reads share one GetObject.
	off     int64
	buf     bytes.Buffer
	fetched int64
}

func (r *reader) Size() int64 {
	return r.size
}

// getObject issues one ranged GetObject for object bytes [start, end], both inclusive.
//
// Callers must clamp the range to the object's size; S3 fails requests whose start lies past end of file.
func (r *reader) getObject(start, end int64) (io.ReadCloser, error) {
	getObjectOutput, err := r.client.GetObject(r.ctx, r.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	}))
	if err != nil {
		return nil, err
	}

	return getObjectOutput.Body, nil
}

func (r *reader) observeFetched(n int64) {
	if r.fetched += n; r.observe != nil {
		r.observe(r.fetched, r.size)
	}
}

func (r *reader) Read(p []byte) (n int, err error) {
	m := int64(len(p))
	if m == 0 {
		return 0, nil
	}

	// always use the buffer if it can satisfy the read in full.
	if int64(r.buf.Len()) >= m {
		n, err = r.buf.Read(p)
		r.off += int64(n)
		return
	}

	// top up the buffer with the next batch; a range past end of file never reaches S3.
	start := r.off + int64(r.buf.Len())
	if end := min(r.off+max(m, r.bufferSize), r.size) - 1; start <= end {
		body, err := r.getObject(start, end)
		if err != nil {
			return 0, err
		}

		nn, err := r.buf.ReadFrom(body)
		_ = body.Close()
		if r.observeFetched(nn); err != nil {
			return 0, err
		}
	}

	if r.buf.Len() == 0 {
		return 0, io.EOF
	}

	n, _ = r.buf.Read(p)
	r.off += int64(n)
	return n, nil
}

func (r *reader) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= r.size {
		return 0, io.EOF
	}

	m := int64(len(p))
	if m == 0 {
		return 0, nil
	}

	end := min(off+m, r.size) - 1

	body, err := r.getObject(off, end)
	if err != nil {
		return 0, err
	}

	n, err = io.ReadFull(body, p[:end-off+1])
	_ = body.Close()
	if r.observeFetched(int64(n)); err != nil {
		return n, err
	}
	if int64(n) < m {
		return n, io.EOF
	}

	return n, nil
}

func (r *reader) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = r.off + offset
	case io.SeekEnd:
		pos = r.size + offset
	default:
		return 0, fmt.Errorf("unknown whence value (%d)", whence)
	}

	if pos < 0 {
		return 0, fmt.Errorf("seek to negative position (%d)", pos)
	}

	// a short forward seek stays within the buffered window; everything else discards it.
	if d := pos - r.off; d > 0 && d <= int64(r.buf.Len()) {
		r.buf.Next(int(d))
	} else if d != 0 {
		r.buf.Reset()
	}

	r.off = pos
	return pos, nil
}

func (r *reader) Close() error {
	r.buf.Reset()
	return nil
}
