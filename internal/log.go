package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/RavuAlHemio/zmx/util"
	"github.com/jessevdk/go-flags"
)

// Prefix creates a consistent prefix for all commands that loop over several archives.
//
// i and n are the zero-based ordinal and expected count.
func Prefix(i, n int, name flags.Filename) string {
	return fmt.Sprintf(`[%d/%d] "%s" - `, i, n, util.TruncateRightWithSuffix(filepath.Base(string(name)), 30, "..."))
}

// NamePrefix is the variant of Prefix for commands that work on a single archive.
func NamePrefix(name flags.Filename) string {
	return fmt.Sprintf(`"%s" - `, util.TruncateRightWithSuffix(filepath.Base(string(name)), 30, "..."))
}

// NewLogger creates a stderr logger whose lines start with Prefix(i, n, name).
func NewLogger(i, n int, name flags.Filename) *log.Logger {
	return log.New(os.Stderr, Prefix(i, n, name), 0)
}

// NewNameLogger creates a stderr logger whose lines start with NamePrefix(name).
func NewNameLogger(name flags.Filename) *log.Logger {
	return log.New(os.Stderr, NamePrefix(name), 0)
}
