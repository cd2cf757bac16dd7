// Package pipeline orchestrates Source → split buffer → Filter → Sink processing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
	"github.com/Geun-Oh/splitbuf/internal/entry"
	"github.com/Geun-Oh/splitbuf/internal/filter"
	"github.com/Geun-Oh/splitbuf/internal/monitor"
	"github.com/Geun-Oh/splitbuf/internal/sink"
	"github.com/Geun-Oh/splitbuf/internal/source"
	"github.com/Geun-Oh/splitbuf/internal/stream"
)

// Config holds pipeline configuration.
type Config struct {
	Source  source.Source
	Buffer  *buffer.Split[byte] // staging buffer; owned by the run
	Filters *filter.Chain       // optional
	Sinks   []sink.Sink
	Stats   *monitor.Stats        // optional
	Rate    *monitor.RateDetector // optional throughput spike detection
	Limit   *rate.Limiter         // optional cap on records per second read from the source
	Logger  *slog.Logger          // optional, defaults to slog.Default()
}

// Run executes the pipeline: a producer goroutine frames source lines into
// the buffer while a consumer goroutine decodes, filters, and writes them to
// the sinks. Blocks until the source is exhausted, either side fails, or ctx
// is cancelled. Sinks are flushed but not closed.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Source == nil {
		return fmt.Errorf("pipeline: source is required")
	}
	if cfg.Buffer == nil {
		return fmt.Errorf("pipeline: buffer is required")
	}
	if len(cfg.Sinks) == 0 {
		return fmt.Errorf("pipeline: at least one sink is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stats := cfg.Stats
	if stats == nil {
		stats = monitor.NewStats(nil)
	}
	logger = logger.With("source", cfg.Source.Name())

	q := stream.NewRecords(cfg.Buffer, stream.WithObserver(stats))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer q.Close()
		err := produce(gctx, cfg.Source, q, cfg.Limit, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("pipeline: source %s: %w", cfg.Source.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		return consume(gctx, q, cfg, stats, logger)
	})
	err := g.Wait()

	for _, s := range cfg.Sinks {
		if ferr := s.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("pipeline: flush %s: %w", s.Name(), ferr)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Debug("pipeline finished", "records", stats.RecordsOut(), "stalls", stats.Stalls())
	return nil
}

// produce frames every source line as a Record. Lines too large for the
// buffer are dropped with a warning.
func produce(ctx context.Context, src source.Source, q *stream.Records, limit *rate.Limiter, logger *slog.Logger) error {
	var seq uint64
	return src.Run(ctx, func(streamName string, line []byte) error {
		if limit != nil {
			if err := limit.Wait(ctx); err != nil {
				return err
			}
		}
		seq++
		rec := entry.Record{
			Seq:     seq,
			Time:    time.Now(),
			Stream:  streamName,
			Source:  src.Name(),
			Payload: line,
		}
		err := q.SendFunc(ctx, rec.EncodedLen(), func(b []byte) {
			rec.Encode(b)
		})
		if errors.Is(err, stream.ErrRecordTooLarge) {
			logger.Warn("dropping record larger than buffer", "seq", seq, "bytes", len(line), "capacity", q.Cap())
			return nil
		}
		return err
	})
}

func consume(ctx context.Context, q *stream.Records, cfg *Config, stats *monitor.Stats, logger *slog.Logger) error {
	for {
		n, err := q.Recv(ctx, func(frame []byte) error {
			rec, err := entry.Decode(frame)
			if err != nil {
				return fmt.Errorf("pipeline: decode record: %w", err)
			}
			if cfg.Filters != nil && cfg.Filters.Len() > 0 && !cfg.Filters.Match(&rec) {
				return nil
			}
			stats.RecordMatch()

			for _, s := range cfg.Sinks {
				if err := s.Write(&rec); err != nil {
					return fmt.Errorf("pipeline: write to %s: %w", s.Name(), err)
				}
			}
			return nil
		})

		stats.ObserveBuffer(q.Cursors(), q.Buffered(), q.Cap())
		if cfg.Rate != nil && n > 0 && cfg.Rate.Record(n) {
			logger.Warn("throughput spike", "rate", cfg.Rate.CurrentRate())
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
