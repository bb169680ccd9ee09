// Package runner compiles and executes submissions as child processes.
package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"

	"labjudge/pkg/errors"
)

// Result captures one child process run. Non-zero exit and timeouts are
// expected grading outcomes, not errors.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	Duration time.Duration
}

// Runner abstracts process execution so the service can be tested with
// fakes.
type Runner interface {
	// Compile builds the source file in dir, producing the binary named
	// by the command template.
	Compile(ctx context.Context, dir, src, bin string) (Result, *errors.Error)
	// Run executes the built binary in dir.
	Run(ctx context.Context, dir, bin string) (Result, *errors.Error)
}

// ProcessRunner runs real child processes from shell-style command
// templates with {src} and {bin} placeholders.
type ProcessRunner struct {
	CompileTemplate string
	RunTemplate     string
	CompileTimeout  time.Duration
	RunTimeout      time.Duration
}

func (r *ProcessRunner) Compile(ctx context.Context, dir, src, bin string) (Result, *errors.Error) {
	argv, err := buildCommand(r.CompileTemplate, src, bin)
	if err != nil {
		return Result{}, err
	}
	return r.exec(ctx, dir, argv, r.CompileTimeout, errors.CompileInvokeFailed)
}

func (r *ProcessRunner) Run(ctx context.Context, dir, bin string) (Result, *errors.Error) {
	argv, err := buildCommand(r.RunTemplate, "", bin)
	if err != nil {
		return Result{}, err
	}
	return r.exec(ctx, dir, argv, r.RunTimeout, errors.RunInvokeFailed)
}

func (r *ProcessRunner) exec(ctx context.Context, dir string, argv []string, timeout time.Duration, code errors.ErrorCode) (Result, *errors.Error) {
	cctx := ctx
	cancel := func() {}
	if timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, errors.Wrapf(err, code, "start %q", strings.Join(argv, " "))
	}
	return res, nil
}

// buildCommand expands placeholders and splits the template with
// shell-style quoting rules.
func buildCommand(template, src, bin string) ([]string, *errors.Error) {
	expanded := strings.NewReplacer("{src}", src, "{bin}", bin).Replace(template)
	argv, err := shlex.Split(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CommandInvalid, "parse command %q", template)
	}
	if len(argv) == 0 {
		return nil, errors.Newf(errors.CommandInvalid, "empty command template %q", template)
	}
	return argv, nil
}
