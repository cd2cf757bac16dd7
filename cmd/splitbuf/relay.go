package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Geun-Oh/splitbuf/internal/config"
	"github.com/Geun-Oh/splitbuf/internal/filter"
	"github.com/Geun-Oh/splitbuf/internal/monitor"
	"github.com/Geun-Oh/splitbuf/internal/pipeline"
	"github.com/Geun-Oh/splitbuf/internal/sink"
	"github.com/Geun-Oh/splitbuf/internal/source"
)

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay [file...]",
		Short: "Relay lines from stdin, files or a command through the buffer",
		Long: `Relay reads lines from stdin, from each file argument in turn, or from the
stdout and stderr of --exec, frames them into the split buffer and writes
the records that pass the filters as text or JSON Lines.`,
		RunE: runRelay,
	}

	f := cmd.Flags()
	f.StringP("format", "f", "text", "output format: text, json")
	f.StringP("output", "o", "", "write records to this file instead of stdout")
	f.Bool("color", false, "colorize text output by stream")
	f.BoolP("follow", "F", false, "keep reading files as they grow")
	f.StringSliceP("grep", "k", nil, "keep records containing any of these keywords")
	f.String("regex", "", "keep records matching this regular expression")
	f.String("grok", "", "keep records matching this grok pattern; JSON output carries its fields")
	f.StringSlice("exclude", nil, "drop records containing any of these keywords")
	f.String("exec", "", "run this command and relay its output")
	f.Float64("rate-limit", 0, "read at most this many lines per second (0 for no limit)")
	f.Bool("stats", false, "print a summary to stderr when done")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	execLine, _ := cmd.Flags().GetString("exec")
	sources, err := buildSources(cfg, args, execLine, cmd.InOrStdin())
	if err != nil {
		return err
	}
	chain, err := buildFilters(cfg)
	if err != nil {
		return err
	}
	sinks, err := buildSinks(cfg, chain, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Error("close sink", "sink", s.Name(), "error", err)
			}
		}
	}()

	var metrics *monitor.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		if metrics, err = monitor.NewMetrics(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}
	stats := monitor.NewStats(metrics)
	spikes := monitor.NewRateDetector(0, 0)
	var limit *rate.Limiter
	if cfg.RateLimit > 0 {
		limit = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	alloc, err := newAllocator(cfg, logger)
	if err != nil {
		return err
	}
	defer alloc.close()

	for _, src := range sources {
		buf := alloc.get()
		err := pipeline.Run(ctx, &pipeline.Config{
			Source:  src,
			Buffer:  buf,
			Filters: chain,
			Sinks:   sinks,
			Stats:   stats,
			Rate:    spikes,
			Limit:   limit,
			Logger:  logger,
		})
		alloc.put(buf)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}

	if cfg.Stats {
		fmt.Fprintln(cmd.ErrOrStderr(), stats.Summary())
	}
	return nil
}

func buildSources(cfg config.Config, files []string, execLine string, stdin io.Reader) ([]source.Source, error) {
	if execLine != "" {
		if len(files) > 0 {
			return nil, errors.New("--exec cannot be combined with file arguments")
		}
		argv := strings.Fields(execLine)
		if len(argv) == 0 {
			return nil, errors.New("--exec needs a command")
		}
		return []source.Source{source.NewExecSource(argv[0], argv[1:])}, nil
	}
	if len(files) == 0 {
		return []source.Source{source.NewReaderSource("stdin", stdin)}, nil
	}

	sources := make([]source.Source, 0, len(files))
	for _, path := range files {
		sources = append(sources, source.NewFileSource(path, cfg.Follow))
	}
	return sources, nil
}

func buildFilters(cfg config.Config) (*filter.Chain, error) {
	chain := filter.NewChain(filter.MatchAll)

	if len(cfg.Grep) > 0 {
		anyOf := filter.NewChain(filter.MatchAny)
		for _, kw := range cfg.Grep {
			anyOf.Add(filter.NewKeywordFilter(kw))
		}
		chain.Add(anyOf)
	}
	if cfg.Regex != "" {
		re, err := filter.NewRegexFilter(cfg.Regex)
		if err != nil {
			return nil, err
		}
		chain.Add(re)
	}
	if cfg.Grok != "" {
		g, err := filter.NewGrokFilter(cfg.Grok)
		if err != nil {
			return nil, err
		}
		chain.Add(g)
	}
	if len(cfg.Exclude) > 0 {
		chain.Add(filter.NewExcludeFilter(cfg.Exclude...))
	}
	return chain, nil
}

func buildSinks(cfg config.Config, chain *filter.Chain, stdout io.Writer) ([]sink.Sink, error) {
	format, err := sink.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	fields := patternFields(chain)
	if cfg.Output != "" {
		s, err := sink.NewFileSink(cfg.Output, format, fields)
		if err != nil {
			return nil, err
		}
		return []sink.Sink{s}, nil
	}

	s, err := sink.New(format, stdout, cfg.Color, fields)
	if err != nil {
		return nil, err
	}
	return []sink.Sink{s}, nil
}

func patternFields(chain *filter.Chain) sink.FieldExtractor {
	for _, f := range chain.Filters() {
		if p, ok := f.(*filter.PatternFilter); ok && p.Named() {
			return p
		}
	}
	return nil
}
