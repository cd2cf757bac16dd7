package source

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// ExecSource executes a command and streams its stdout and stderr lines.
type ExecSource struct {
	command string
	args    []string
}

// NewExecSource creates a source that runs the given command with arguments.
func NewExecSource(command string, args []string) *ExecSource {
	return &ExecSource{
		command: command,
		args:    args,
	}
}

// Name returns the source identifier.
func (s *ExecSource) Name() string {
	return fmt.Sprintf("exec:%s", s.command)
}

// Run executes the command and emits its output until it exits or ctx is
// cancelled. Lines from stdout and stderr are serialized before reaching emit.
func (s *ExecSource) Run(ctx context.Context, emit EmitFunc) error {
	cmd := exec.CommandContext(ctx, s.command, s.args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var mu sync.Mutex
	locked := func(stream string, line []byte) error {
		mu.Lock()
		defer mu.Unlock()
		return emit(stream, line)
	}

	errs := make(chan error, 2)
	go func() { errs <- scanLines(ctx, "stdout", stdoutPipe, locked) }()
	go func() { errs <- scanLines(ctx, "stderr", stderrPipe, locked) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := cmd.Wait(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("command %s: %w", s.command, err)
	}
	return firstErr
}
