package config

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// BucketConfig contains configuration settings for a specific bucket.
//
// The settings come from a section named after the bucket's S3 URI, e.g.:
//
//	[s3://my-bucket]
//	aws-profile = my-profile
//	expected-bucket-owner = 123456789012
//	storage-class = STANDARD_IA
type BucketConfig struct {
	Bucket              string
	AWSProfile          string
	ExpectedBucketOwner *string
	StorageClass        types.StorageClass
}

// ForBucket returns configuration for a specific bucket.
//
// A bucket without a section gets a zero BucketConfig save for the Bucket field itself.
func (l *Loader) ForBucket(bucket string) (c BucketConfig) {
	c.Bucket = bucket

	sec, err := l.cfg.GetSection("s3://" + bucket)
	if err != nil {
		return c
	}

	c.AWSProfile = sec.Key("aws-profile").Value()

	if sec.HasKey("expected-bucket-owner") {
		c.ExpectedBucketOwner = aws.String(sec.Key("expected-bucket-owner").Value())
	}
	if v := sec.Key("storage-class").Value(); v != "" {
		c.StorageClass = types.StorageClass(v)
	}

	return
}

// ForBucket calls Loader.ForBucket on the DefaultLoader instance.
func ForBucket(bucket string) (c BucketConfig) {
	return DefaultLoader.ForBucket(bucket)
}
