package output

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/invoicing/internal/errs"
)

// Compiler turns a source file into a PDF in folder.
type Compiler interface {
	Compile(ctx context.Context, folder, source string) error
}

// ExecCompiler runs an external TeX engine and blocks until it exits. Its
// output goes to the debug log.
type ExecCompiler struct {
	Command string
	Args    []string
	Log     *logrus.Entry
}

// Compile runs "<command> <args> -output-directory <folder> <source>".
// A non-zero exit is a RenderError carrying the exit code; a command that
// cannot be started is a RenderError with code -1.
func (c *ExecCompiler) Compile(ctx context.Context, folder, source string) error {
	args := append(append([]string{}, c.Args...), "-output-directory", folder, source)
	line := strings.Join(append([]string{c.Command}, args...), " ")

	w := c.Log.WriterLevel(logrus.DebugLevel)
	defer w.Close()

	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Stdout = w
	cmd.Stderr = w

	c.Log.Debugf("running %s", line)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &errs.RenderError{ExitCode: exitErr.ExitCode(), Command: line}
		}
		return &errs.RenderError{ExitCode: -1, Command: line, Err: err}
	}
	return nil
}
