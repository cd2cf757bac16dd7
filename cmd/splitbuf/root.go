package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
	"github.com/Geun-Oh/splitbuf/internal/config"
	"github.com/Geun-Oh/splitbuf/internal/memory"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "splitbuf",
		Short: "splitbuf relays line streams through a split ring buffer",
		Long: `splitbuf relays line streams through a split ring buffer.
Every line is framed into one contiguous region of a fixed-size buffer, so
the consumer filters and writes records in place without copying them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a YAML config file")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().Int("capacity", config.DefaultCapacity, "buffer capacity in bytes")
	cmd.PersistentFlags().Bool("mmap", false, "back the buffer with an anonymous memory mapping")

	cmd.AddCommand(newRelayCmd(), newPipeCmd(), newDemoCmd())
	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the --config file and explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(cmd.Flags(), &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error
	set := func(name string, apply func() error) {
		if err == nil && fs.Lookup(name) != nil && fs.Changed(name) {
			err = apply()
		}
	}

	set("log-level", func() (e error) { cfg.LogLevel, e = fs.GetString("log-level"); return })
	set("capacity", func() (e error) { cfg.Capacity, e = fs.GetInt("capacity"); return })
	set("mmap", func() (e error) { cfg.Mmap, e = fs.GetBool("mmap"); return })
	set("format", func() (e error) { cfg.Format, e = fs.GetString("format"); return })
	set("output", func() (e error) { cfg.Output, e = fs.GetString("output"); return })
	set("color", func() (e error) { cfg.Color, e = fs.GetBool("color"); return })
	set("follow", func() (e error) { cfg.Follow, e = fs.GetBool("follow"); return })
	set("grep", func() (e error) { cfg.Grep, e = fs.GetStringSlice("grep"); return })
	set("regex", func() (e error) { cfg.Regex, e = fs.GetString("regex"); return })
	set("grok", func() (e error) { cfg.Grok, e = fs.GetString("grok"); return })
	set("exclude", func() (e error) { cfg.Exclude, e = fs.GetStringSlice("exclude"); return })
	set("rate-limit", func() (e error) { cfg.RateLimit, e = fs.GetFloat64("rate-limit"); return })
	set("stats", func() (e error) { cfg.Stats, e = fs.GetBool("stats"); return })
	set("metrics-addr", func() (e error) { cfg.MetricsAddr, e = fs.GetString("metrics-addr"); return })
	return err
}

func newLogger(level string, w io.Writer) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// allocator hands out byte buffers of the configured capacity, either from
// a pool on the Go heap or over one mmap'd region.
type allocator struct {
	pool   *buffer.Pool
	region *memory.Region
}

func newAllocator(cfg config.Config, logger *slog.Logger) (*allocator, error) {
	if !cfg.Mmap {
		return &allocator{pool: buffer.NewPool(cfg.Capacity)}, nil
	}
	region, err := memory.Allocate(cfg.Capacity, true)
	if err != nil {
		return nil, err
	}
	if !region.Mapped() {
		logger.Warn("mmap unavailable, using heap buffer", "capacity", cfg.Capacity)
	}
	return &allocator{region: region}, nil
}

// get returns an empty buffer. With a mapped region the same store is
// reused, so at most one buffer may be in use at a time.
func (a *allocator) get() *buffer.Split[byte] {
	if a.region != nil {
		return buffer.Wrap(a.region.Bytes)
	}
	return a.pool.Get()
}

func (a *allocator) put(b *buffer.Split[byte]) {
	if a.pool != nil {
		a.pool.Put(b)
	}
}

func (a *allocator) close() error {
	return a.region.Release()
}
