package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenExclFile(t *testing.T) {
	dir := t.TempDir()

	f, err := OpenExclFile(dir, "app", ".zip.bak", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "app.zip.bak"), f.Name())
	assert.NoError(t, f.Close())

	// the name is taken now, so numeric suffixes kick in.
	f, err = OpenExclFile(dir, "app", ".zip.bak", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "app-1.zip.bak"), f.Name())
	assert.NoError(t, f.Close())

	f, err = OpenExclFile(dir, "app", ".zip.bak", 0666)
	assert.NoErrorf(t, err, "OpenExclFile() error = %v", err)
	assert.Equal(t, filepath.Join(dir, "app-2.zip.bak"), f.Name())
	assert.NoError(t, f.Close())

	for _, name := range []string{"app.zip.bak", "app-1.zip.bak", "app-2.zip.bak"} {
		_, err = os.Stat(filepath.Join(dir, name))
		assert.NoErrorf(t, err, "Stat(%q) error = %v", name, err)
	}
}
