package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/RavuAlHemio/zmx"
	"github.com/RavuAlHemio/zmx/internal"
	"github.com/RavuAlHemio/zmx/internal/config"
	"github.com/RavuAlHemio/zmx/managerlogging"
	"github.com/RavuAlHemio/zmx/s3reader"
	"github.com/RavuAlHemio/zmx/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func parseS3Archive(name string) (bucket, key string, err error) {
	if bucket, key, err = util.ParseS3URI(name); err == nil && (bucket == "" || key == "") {
		err = fmt.Errorf("S3 URI must be in s3://bucket/key format")
	}

	return
}

func newS3Client(ctx context.Context, bucket string) (*s3.Client, error) {
	client, err := config.NewS3ClientForBucket(ctx, bucket, func(options *s3.Options) {
		// without this, getting a bunch of WARN message below:
		// WARN Response has no supported checksum. Not validating response payload.
		options.DisableLogOutputChecksumValidationSkipped = true
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client error: %w", err)
	}

	return client, nil
}

// listRemote reads the central directory straight out of S3 with ranged requests so the archive is never downloaded
// in full.
func (c *List) listRemote(ctx context.Context, bucket, key string) error {
	client, err := newS3Client(ctx, bucket)
	if err != nil {
		return err
	}

	cfg := config.ForBucket(bucket)

	r, err := s3reader.New(ctx, client, bucket, key,
		s3reader.WithExpectedBucketOwner(cfg.ExpectedBucketOwner),
		s3reader.WithProgressLogger(c.logger, 5*time.Second))
	if err != nil {
		return err
	}
	defer r.Close()

	entries, err := zmx.List(r)
	if err != nil {
		return err
	}

	return c.print("s3://"+bucket+"/"+key, entries)
}

// patchRemote downloads the archive to a temporary file, patches it there, then uploads the result over the original
// key. The optional backup is a server-side copy of the object as it was before the upload.
func (c *patchOptions) patchRemote(ctx context.Context, bucket, key string) error {
	client, err := newS3Client(ctx, bucket)
	if err != nil {
		return err
	}

	cfg := config.ForBucket(bucket)

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:              aws.String(cfg.Bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: cfg.ExpectedBucketOwner,
	})
	if err != nil {
		return fmt.Errorf("describe object error: %w", err)
	}
	size := aws.ToInt64(head.ContentLength)

	stem, ext := util.StemAndExt(key)
	f, err := os.CreateTemp("", stem+"-*"+ext)
	if err != nil {
		return fmt.Errorf("create temporary file error: %w", err)
	}
	defer func() {
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
	}()

	if err = c.download(ctx, client, cfg, key, f, size); err != nil {
		return fmt.Errorf("download error: %w", err)
	}

	if err = c.patchFile(ctx, f); err != nil {
		return err
	}

	if c.Backup {
		if err = c.copyBackup(ctx, client, cfg, key); err != nil {
			return fmt.Errorf("write backup error: %w", err)
		}
	}

	if err = c.upload(ctx, client, cfg, key, f, size); err != nil {
		return fmt.Errorf("upload error: %w", err)
	}

	return nil
}

func (c *patchOptions) download(ctx context.Context, client *s3.Client, cfg config.BucketConfig, key string, f *os.File, size int64) error {
	bar := internal.DefaultBytes(size, "downloading")
	defer bar.Close()

	downloader := manager.NewDownloader(managerlogging.WrapDownloadAPIClient(client, func(l *managerlogging.LoggingDownloadAPIClient) {
		l.PostGetObject = func(output *s3.GetObjectOutput, err error) {
			if err == nil {
				_ = bar.Add64(aws.ToInt64(output.ContentLength))
			}
		}
	}))

	_, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket:              aws.String(cfg.Bucket),
		Key:                 aws.String(key),
		ExpectedBucketOwner: cfg.ExpectedBucketOwner,
	})
	return err
}

// copyBackup copies the object to an unused sibling key without ever downloading it.
func (c *patchOptions) copyBackup(ctx context.Context, client *s3.Client, cfg config.BucketConfig, key string) error {
	base := key[strings.LastIndexByte(key, '/')+1:]
	prefix := key[:len(key)-len(base)]
	stem, ext := util.StemAndExt(base)

	backupKey, err := util.FindUnusedS3Key(ctx, client, cfg.Bucket, prefix, stem, ext+".bak", func(input *s3.HeadObjectInput) {
		input.ExpectedBucketOwner = cfg.ExpectedBucketOwner
	})
	if err != nil {
		return err
	}

	c.logger.Printf(`backing up to "s3://%s/%s"`, cfg.Bucket, backupKey)

	if _, err = client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:                    aws.String(cfg.Bucket),
		Key:                       aws.String(backupKey),
		CopySource:                aws.String(url.PathEscape(cfg.Bucket + "/" + key)),
		ExpectedBucketOwner:       cfg.ExpectedBucketOwner,
		ExpectedSourceBucketOwner: cfg.ExpectedBucketOwner,
		StorageClass:              cfg.StorageClass,
	}); err != nil {
		return fmt.Errorf("copy object error: %w", err)
	}

	return nil
}

func (c *patchOptions) upload(ctx context.Context, client *s3.Client, cfg config.BucketConfig, key string, f *os.File, size int64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	expectedPartCount := int32((size-1)/manager.DefaultUploadPartSize + 1)
	uploader := manager.NewUploader(client, managerlogging.LogSuccessfulUploadPartWithExpectedPartCount(c.logger, expectedPartCount))

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:              aws.String(cfg.Bucket),
		Key:                 aws.String(key),
		Body:                f,
		ExpectedBucketOwner: cfg.ExpectedBucketOwner,
		StorageClass:        cfg.StorageClass,
	})
	return err
}
