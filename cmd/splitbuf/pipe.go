package main

import (
	"github.com/spf13/cobra"

	"github.com/Geun-Oh/splitbuf/internal/stream"
)

func newPipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipe",
		Short: "Copy stdin to stdout through the buffer",
		Args:  cobra.NoArgs,
		RunE:  runPipe,
	}
}

func runPipe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	alloc, err := newAllocator(cfg, logger)
	if err != nil {
		return err
	}
	defer alloc.close()
	buf := alloc.get()
	defer alloc.put(buf)

	r, w := stream.Pipe(buf)
	copied := make(chan int64, 1)
	go func() {
		n, err := w.ReadFrom(cmd.InOrStdin())
		w.CloseWithError(err)
		copied <- n
	}()

	n, err := r.WriteTo(cmd.OutOrStdout())
	if err != nil {
		// The copier may be parked in a stdin read that never returns; it
		// fails on its next write into the closed pipe without touching buf.
		r.CloseWithError(err)
		logger.Debug("pipe aborted", "written", n, "error", err)
		return err
	}
	in := <-copied
	logger.Debug("pipe finished", "read", in, "written", n)
	return nil
}
