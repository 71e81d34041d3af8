package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/RavuAlHemio/zmx"
	"github.com/RavuAlHemio/zmx/internal"
	"github.com/RavuAlHemio/zmx/internal/config"
	"github.com/RavuAlHemio/zmx/util"
	"github.com/jessevdk/go-flags"
)

// patchOptions is the shared surface of the make-executable and make-not-executable commands; the two only differ in
// the patch operation they apply.
type patchOptions struct {
	Backup bool `short:"b" long:"backup" description:"keep a backup copy of the archive as it was before patching"`
	Args   struct {
		Archive flags.Filename `positional-arg-name:"archive" description:"local path or s3://bucket/key URI of the ZIP archive to patch" required:"yes"`
		Names   []string       `positional-arg-name:"entry" description:"names of the entries to patch" required:"yes"`
	} `positional-args:"yes"`

	patch  func(f io.ReadWriteSeeker, offset uint64) error
	logger *log.Logger
}

type MakeExecutable struct {
	patchOptions
}

func (c *MakeExecutable) Execute(args []string) error {
	c.patch = zmx.MakeExecutable
	return c.execute(args)
}

type MakeNotExecutable struct {
	patchOptions
}

func (c *MakeNotExecutable) Execute(args []string) error {
	c.patch = zmx.MakeNotExecutable
	return c.execute(args)
}

func (c *patchOptions) execute(args []string) (err error) {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	if _, err = config.Load(ctx); err != nil {
		return err
	}

	c.logger = internal.NewNameLogger(c.Args.Archive)

	name := string(c.Args.Archive)
	if strings.HasPrefix(name, "s3://") {
		bucket, key, err := parseS3Archive(name)
		if err != nil {
			return err
		}

		return c.patchRemote(ctx, bucket, key)
	}

	return c.patchLocal(ctx, name)
}

func (c *patchOptions) patchLocal(ctx context.Context, name string) error {
	if c.Backup {
		if err := c.writeBackupFile(ctx, name); err != nil {
			return fmt.Errorf("write backup error: %w", err)
		}
	}

	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open archive error: %w", err)
	}
	defer f.Close()

	return c.patchFile(ctx, f)
}

// patchFile lists f then patches every requested entry in ascending offset order.
func (c *patchOptions) patchFile(ctx context.Context, f *os.File) error {
	entries, err := zmx.List(f)
	if err != nil {
		return err
	}

	offsets, err := matchOffsets(entries, c.Args.Names)
	if err != nil {
		return err
	}

	for _, offset := range offsets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err = c.patch(f, offset); err != nil {
			return fmt.Errorf("patch entry at offset %d error: %w", offset, err)
		}
	}

	return nil
}

// matchOffsets resolves entry names to header offsets; the first match wins for names stored more than once.
//
// Offsets come back sorted ascending so patches sweep the archive forward. Any name without a match fails the whole
// call so that nothing is patched.
func matchOffsets(entries []zmx.Entry, names []string) ([]uint64, error) {
	byName := make(map[string]uint64, len(entries))
	for _, e := range entries {
		name := zmx.DecodeName(e.Name)
		if _, ok := byName[name]; !ok {
			byName[name] = e.Offset
		}
	}

	var missing []string
	offsets := make([]uint64, 0, len(names))
	for _, name := range names {
		if offset, ok := byName[name]; ok {
			offsets = append(offsets, offset)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) != 0 {
		return nil, fmt.Errorf("entries not found in archive: %s", strings.Join(missing, ", "))
	}

	slices.Sort(offsets)
	return slices.Compact(offsets), nil
}

// writeBackupFile copies the archive to a sibling file whose name is picked with OpenExclFile so that an existing
// backup is never overwritten.
func (c *patchOptions) writeBackupFile(ctx context.Context, name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return err
	}

	stem, ext := util.StemAndExt(filepath.Base(name))
	dst, err := util.OpenExclFile(filepath.Dir(name), stem, ext+".bak", fi.Mode().Perm())
	if err != nil {
		return err
	}

	c.logger.Printf(`backing up to "%s"`, dst.Name())

	bar := internal.DefaultBytes(fi.Size(), "copying")
	_, err = zmx.CopyBufferWithContext(ctx, io.MultiWriter(dst, bar), src, nil)
	_ = bar.Close()
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}

	return err
}
