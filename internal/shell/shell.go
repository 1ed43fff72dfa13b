// Package shell runs passthrough commands typed after "!".
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output picks what the caller shows: stdout if it has any non-blank text,
// else stderr, else a generic message. The chosen stream is returned as is.
func (r Result) Output() string {
	if strings.TrimSpace(r.Stdout) != "" {
		return r.Stdout
	}
	if strings.TrimSpace(r.Stderr) != "" {
		return r.Stderr
	}
	if r.ExitCode != 0 {
		return fmt.Sprintf("Command exited with status %d", r.ExitCode)
	}
	return "Command executed successfully"
}

// Runner is the function signature used by the assistant.
type Runner func(ctx context.Context, dir, command string) (Result, error)

// Run executes command through the system shell in dir. A non-zero exit is
// reported in Result, not as an error.
func Run(ctx context.Context, dir, command string) (Result, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("executing command: %w", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res, nil
}
