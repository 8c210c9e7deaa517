package shell

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes a shell command in a working directory and returns
// captured stdout and stderr. Cancellation comes from the context.
type Runner interface {
	Run(ctx context.Context, dir, command string) (string, string, error)
}

type LocalRunner struct{}

func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

func (lr *LocalRunner) Run(ctx context.Context, dir, command string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
