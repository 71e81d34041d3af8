package s3reader

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// WithProgressLogger logs cumulative download progress with the given interval.
//
// For example, if interval is `5*time.Second`, at most every 5 seconds the given logger will print
// `fetched X of Y so far` where X is the number of bytes retrieved from S3 over the Reader's lifetime, Y the total
// size of the object, both in a human-friendly format (e.g. 5 KiB, 1 MiB, etc.).
//
// X counts bytes fetched, not bytes read: seeking around the object refetches, so X can exceed Y.
func WithProgressLogger(logger *log.Logger, interval time.Duration) func(*Options) {
	return func(opts *Options) {
		s := &rate.Sometimes{Interval: interval}
		opts.observe = func(fetched, size int64) {
			s.Do(func() {
				logger.Printf("fetched %s of %s so far", humanize.IBytes(uint64(fetched)), humanize.IBytes(uint64(size)))
			})
		}
	}
}
