package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-ini/ini"
	"github.com/stretchr/testify/assert"
)

func TestForBucket(t *testing.T) {
	cfg, err := ini.Load([]byte(`
[s3://my-bucket]
aws-profile = deploy
expected-bucket-owner = 123456789012
storage-class = STANDARD_IA
`))
	assert.NoErrorf(t, err, "ini.Load() error = %v", err)

	l := &Loader{cfg: cfg}

	c := l.ForBucket("my-bucket")
	assert.Equal(t, "my-bucket", c.Bucket)
	assert.Equal(t, "deploy", c.AWSProfile)
	if assert.NotNil(t, c.ExpectedBucketOwner) {
		assert.Equal(t, "123456789012", *c.ExpectedBucketOwner)
	}
	assert.Equal(t, types.StorageClassStandardIa, c.StorageClass)

	c = l.ForBucket("other-bucket")
	assert.Equal(t, "other-bucket", c.Bucket)
	assert.Empty(t, c.AWSProfile)
	assert.Nil(t, c.ExpectedBucketOwner)
	assert.Empty(t, c.StorageClass)
}

func TestForBucket_PartialSection(t *testing.T) {
	cfg, err := ini.Load([]byte("[s3://my-bucket]\naws-profile = deploy\n"))
	assert.NoErrorf(t, err, "ini.Load() error = %v", err)

	c := (&Loader{cfg: cfg}).ForBucket("my-bucket")
	assert.Equal(t, "deploy", c.AWSProfile)
	assert.Nil(t, c.ExpectedBucketOwner)
	assert.Empty(t, c.StorageClass)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	assert.NoError(t, os.MkdirAll(nested, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(root, ".zmx"), []byte("[s3://my-bucket]\naws-profile = deploy\n"), 0o644))

	wd, err := os.Getwd()
	assert.NoErrorf(t, err, "os.Getwd() error = %v", err)
	assert.NoError(t, os.Chdir(nested))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	// Load resolves paths through os.Getwd so expectations must as well.
	cur, err := os.Getwd()
	assert.NoErrorf(t, err, "os.Getwd() error = %v", err)

	l := &Loader{cfg: ini.Empty()}
	path, err := l.Load(context.Background())
	assert.NoErrorf(t, err, "Load() error = %v", err)
	assert.Equal(t, filepath.Join(filepath.Dir(filepath.Dir(cur)), ".zmx"), path)
	assert.Equal(t, "deploy", l.ForBucket("my-bucket").AWSProfile)
}

func TestLoad_SkipsDirectory(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "sub")
	assert.NoError(t, os.MkdirAll(filepath.Join(nested, ".zmx"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(root, ".zmx"), []byte("[s3://my-bucket]\naws-profile = deploy\n"), 0o644))

	wd, err := os.Getwd()
	assert.NoErrorf(t, err, "os.Getwd() error = %v", err)
	assert.NoError(t, os.Chdir(nested))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	cur, err := os.Getwd()
	assert.NoErrorf(t, err, "os.Getwd() error = %v", err)

	l := &Loader{cfg: ini.Empty()}
	path, err := l.Load(context.Background())
	assert.NoErrorf(t, err, "Load() error = %v", err)
	assert.Equal(t, filepath.Join(filepath.Dir(cur), ".zmx"), path)
}

func TestLoad_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Loader{cfg: ini.Empty()}).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
