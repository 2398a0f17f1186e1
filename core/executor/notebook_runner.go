package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"exoml-server/core/apperr"
	"exoml-server/training/frameworks"

	"go.uber.org/zap"
)

// DefaultTimeout is the wall-clock budget of a notebook run
const DefaultTimeout = 300 * time.Second

// Result is the raw outcome of one external process run
type Result struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	TimedOut   bool // killed for exceeding the budget, not a genuine non-zero exit
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall-clock time the process ran
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CommandBuilder turns a notebook path into a process invocation
type CommandBuilder interface {
	NotebookCommand(notebookPath string, timeout time.Duration) (*frameworks.Command, error)
}

// NotebookRunner executes training notebooks out of process
type NotebookRunner struct {
	notebooksDir string
	timeout      time.Duration
	builder      CommandBuilder
	logger       *zap.Logger
}

// NewNotebookRunner creates a runner rooted at notebooksDir
func NewNotebookRunner(notebooksDir string, timeout time.Duration, builder CommandBuilder, logger *zap.Logger) *NotebookRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if builder == nil {
		builder = &frameworks.JupyterSetup{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotebookRunner{
		notebooksDir: notebooksDir,
		timeout:      timeout,
		builder:      builder,
		logger:       logger,
	}
}

// Timeout returns the configured budget
func (r *NotebookRunner) Timeout() time.Duration {
	return r.timeout
}

// ResolveNotebook maps a notebook name to an absolute path inside the notebooks directory
func (r *NotebookRunner) ResolveNotebook(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("notebook name is required: %w", apperr.ErrInvalidInput)
	}

	root, err := filepath.Abs(r.notebooksDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve notebooks dir: %w", err)
	}

	path := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("notebook %q escapes notebooks dir: %w", name, apperr.ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("notebook %q: %w", name, apperr.ErrNotFound)
	}
	return path, nil
}

// ListNotebooks returns the notebook file names available to run
func (r *NotebookRunner) ListNotebooks() ([]string, error) {
	entries, err := os.ReadDir(r.notebooksDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list notebooks: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".ipynb" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Run executes the notebook and blocks until it exits or the budget runs out.
// Cancelling ctx does not stop a started job; only the timeout does.
func (r *NotebookRunner) Run(ctx context.Context, notebookPath string) Result {
	started := time.Now()

	command, err := r.builder.NotebookCommand(notebookPath, r.timeout)
	if err != nil {
		return Result{
			ExitCode:   -1,
			Stderr:     err.Error(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	killGroupOnCancel(cmd)
	// anything that escaped the group can keep the pipes open after the kill
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("starting notebook",
		zap.String("notebook", notebookPath),
		zap.Duration("timeout", r.timeout))

	err = cmd.Run()
	result := Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = -1
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// never started
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}

	r.logger.Info("notebook finished",
		zap.String("notebook", notebookPath),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("elapsed", result.Duration()))

	return result
}
