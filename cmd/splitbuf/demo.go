package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

const demoCapacity = 256

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through reserve, commit, available and consume step by step",
		Long: `Demo drives a byte buffer (256 bytes unless --capacity is given) through a
fill, wrap and drain cycle and prints the cursors after every step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			capacity := demoCapacity
			if cmd.Flags().Changed("capacity") {
				capacity, _ = cmd.Flags().GetInt("capacity")
			}
			if capacity < 4 {
				return fmt.Errorf("demo needs a capacity of at least 4, got %d", capacity)
			}
			runDemo(cmd.OutOrStdout(), capacity)
			return nil
		},
	}
}

// runDemo replays a fixed sequence of operations sized relative to capacity.
func runDemo(w io.Writer, capacity int) {
	b := buffer.New[byte](capacity, 0)
	third := capacity * 100 / 256
	if third == 0 {
		third = 1
	}

	step := func(op string) {
		c := b.Cursors()
		fmt.Fprintf(w, "%-28s head=%-4d tail=%-4d split=%-4d buffered=%d\n", op, c.Head, c.Tail, c.Split, b.Buffered())
	}
	reserve := func(n int, commit bool) {
		r, ok := b.Reserve(n)
		switch {
		case !ok:
			step(fmt.Sprintf("reserve(%d) refused", n))
		case commit:
			r.Commit()
			step(fmt.Sprintf("reserve(%d)+commit", n))
		default:
			r.Release()
			step(fmt.Sprintf("reserve(%d) abandoned", n))
		}
	}
	available := func(consume bool) {
		a := b.Available()
		n := a.Len()
		if consume {
			a.Consume()
			step(fmt.Sprintf("available=%d, consume", n))
			return
		}
		a.Release()
		step(fmt.Sprintf("available=%d", n))
	}

	step("new")
	reserve(third, true)
	available(false)
	reserve(third, true)
	available(false)
	reserve(third, false)
	reserve(capacity-2*third, false)
	available(true)
	reserve(2*third, true)
	available(false)
	available(true)
	available(false)
	available(true)
	available(false)
}
