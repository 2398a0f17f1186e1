package frameworks

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// JupyterSetup builds the command line that executes a notebook headlessly
type JupyterSetup struct {
	Binary    string   // "jupyter" unless overridden
	ExtraArgs []string // appended before the notebook path
	WorkDir   string   // process working directory; empty inherits the server's
}

// Command represents a ready-to-run process invocation
type Command struct {
	Name string
	Args []string
	Dir  string
}

// NotebookCommand returns the nbconvert invocation for notebookPath.
// The per-cell timeout matches the overall budget so nbconvert never gives up
// before the runner does.
func (j *JupyterSetup) NotebookCommand(notebookPath string, timeout time.Duration) (*Command, error) {
	if err := validateNotebookPath(notebookPath); err != nil {
		return nil, err
	}

	bin := j.Binary
	if bin == "" {
		bin = "jupyter"
	}

	args := []string{
		"nbconvert",
		"--to", "notebook",
		"--execute",
		"--inplace",
		"--ExecutePreprocessor.timeout=" + strconv.Itoa(int(timeout.Seconds())),
	}
	args = append(args, j.ExtraArgs...)
	args = append(args, notebookPath)

	return &Command{
		Name: bin,
		Args: args,
		Dir:  j.WorkDir,
	}, nil
}

func validateNotebookPath(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("notebook path must be absolute: %s", path)
	}
	if filepath.Ext(path) != ".ipynb" {
		return fmt.Errorf("not a notebook: %s", path)
	}
	return nil
}
