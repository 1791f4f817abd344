package harness

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/qiniu/x/log"
)

// Runner runs a program to completion in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// CommandError reports a program that failed, with its standard error.
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs programs as subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	log.Debugf("(cd %s && %s %s)", dir, name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &CommandError{Name: name, Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		log.Debug(out)
	}
	return nil
}
