package util

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ParseS3URI parses S3 URIs in format s3://bucket/key.
//
// The only validation that exists right now is that text must start with s3://. The key may be
// empty ("s3://bucket" or "s3://bucket/"); callers that need a key should check for that.
func ParseS3URI(text string) (bucket, key string, err error) {
	// don't bother validating valid bucket names.
	if !strings.HasPrefix(text, "s3://") {
		return "", "", fmt.Errorf("text does not start with s3://")
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(text, "s3://"), "/")
	return
}

// FindUnusedS3Key returns an S3 key pointing to a non-existing S3 object.
//
// The returned key will be in format `{prefix}{stem}{ext}`, `{prefix}{stem}-1{ext}`, or `{prefix}{stem}-2{ext}`, and so
// on. Use the optional modifiers to add ExpectedBucketOwner to the HeadObject calls.
func FindUnusedS3Key(ctx context.Context, client *s3.Client, bucket, prefix, stem, ext string, optFns ...func(*s3.HeadObjectInput)) (string, error) {
	key := prefix + stem + ext
	for i := 0; ; {
		input := &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}
		for _, fn := range optFns {
			fn(input)
		}

		if _, err := client.HeadObject(ctx, input); err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}

			var re *awshttp.ResponseError
			if errors.As(err, &re) && re.HTTPStatusCode() == 404 {
				break
			}

			return "", fmt.Errorf("find unused S3 key error: %w", err)
		}
		i++
		key = fmt.Sprintf("%s%s-%d%s", prefix, stem, i, ext)
	}

	return key, nil
}
