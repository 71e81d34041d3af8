package cmd

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/RavuAlHemio/zmx"
	"github.com/RavuAlHemio/zmx/internal"
	"github.com/RavuAlHemio/zmx/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
)

type List struct {
	Sort string `long:"sort" choice:"name" choice:"size" description:"reorder entries for display instead of keeping central directory order"`
	Args struct {
		Archives []flags.Filename `positional-arg-name:"archive" description:"local paths or s3://bucket/key URIs of the ZIP archives to list" required:"yes"`
	} `positional-args:"yes"`

	logger *log.Logger
}

func (c *List) Execute(args []string) (err error) {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	if _, err = config.Load(ctx); err != nil {
		return err
	}

	success := 0
	n := len(c.Args.Archives)
	for i, archive := range c.Args.Archives {
		c.logger = internal.NewLogger(i, n, archive)

		if err = c.list(ctx, string(archive)); err == nil {
			success++
			continue
		}

		if errors.Is(err, context.Canceled) {
			break
		}

		c.logger.Printf("list error: %v", err)
	}

	if success != n {
		log.Printf("successfully listed %d/%d archives", success, n)
		return fmt.Errorf("failed to list %d/%d archives", n-success, n)
	}

	return nil
}

func (c *List) list(ctx context.Context, name string) error {
	if strings.HasPrefix(name, "s3://") {
		bucket, key, err := parseS3Archive(name)
		if err != nil {
			return err
		}

		return c.listRemote(ctx, bucket, key)
	}

	return c.listLocal(name)
}

func (c *List) listLocal(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("open archive error: %w", err)
	}
	defer f.Close()

	entries, err := zmx.List(f)
	if err != nil {
		return err
	}

	return c.print(name, entries)
}

// print writes one header line and one line per entry to standard output.
func (c *List) print(name string, entries []zmx.Entry) error {
	type row struct {
		mode string
		size uint64
		name string
		exec bool
	}

	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		size, err := e.UncompressedSize64()
		if err != nil {
			return fmt.Errorf(`entry "%s" error: %w`, zmx.DecodeName(e.Name), err)
		}

		rows = append(rows, row{
			mode: e.ModeString(),
			size: size,
			name: zmx.DecodeName(e.Name),
			exec: e.IsExecutable(),
		})
	}

	switch c.Sort {
	case "name":
		slices.SortStableFunc(rows, func(a, b row) int { return strings.Compare(a.name, b.name) })
	case "size":
		slices.SortStableFunc(rows, func(a, b row) int { return cmp.Compare(a.size, b.size) })
	}

	fmt.Printf("%s: %d entries\n", name, len(rows))
	for _, r := range rows {
		marker := ""
		if r.exec {
			marker = " *"
		}

		fmt.Printf("%s %10s %s%s\n", r.mode, humanize.IBytes(r.size), r.name, marker)
	}

	return nil
}
