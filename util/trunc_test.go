package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateRightWithSuffix(t *testing.T) {
	assert.Equal(t, "short.zip", TruncateRightWithSuffix("short.zip", 30, "..."))
	assert.Equal(t, "a-very-lon...", TruncateRightWithSuffix("a-very-long-archive-name.zip", 10, "..."))
	assert.Equal(t, "...", TruncateRightWithSuffix("whatever", 0, "..."))

	// runes, not bytes.
	assert.Equal(t, "nähe...", TruncateRightWithSuffix("nähere-umgebung.zip", 4, "..."))

	assert.Equal(t, "ab", TruncateRight("abcd", 2))
	assert.Equal(t, "abcd", TruncateRight("abcd", 10))
}
