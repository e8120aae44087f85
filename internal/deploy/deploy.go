// Package deploy runs the site's configured deploy command.
package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/blogdeck/admin/pkg/logger"
)

var ErrNotConfigured = errors.New("deploy command not configured")

// Output is what the command printed.
type Output struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Runner executes "<command> <message>" from the site's base directory.
type Runner struct {
	command string
	dir     string
	history History
}

// NewRunner returns a runner. history may be nil.
func NewRunner(command, dir string, history History) *Runner {
	if history == nil {
		history = NopHistory{}
	}
	return &Runner{command: command, dir: dir, history: history}
}

// Run waits for the command to finish. A non-zero exit is an error but the
// captured output is still returned.
func (r *Runner) Run(ctx context.Context, message string) (*Output, error) {
	if r.command == "" {
		return nil, ErrNotConfigured
	}
	rec := &Record{RunID: uuid.NewString(), Command: r.command, Message: message, StartedAt: time.Now()}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command, message)
	cmd.Dir = r.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Infof("deploy: running %s", r.command)
	err := cmd.Run()

	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	rec.FinishedAt = time.Now()
	rec.Stdout, rec.Stderr = out.Stdout, out.Stderr
	rec.Status = "ok"
	if err != nil {
		rec.Status = "failed"
		rec.Error = err.Error()
	}
	if herr := r.history.Save(ctx, rec); herr != nil {
		logger.Warnf("deploy: record run %s: %v", rec.RunID, herr)
	}
	if err != nil {
		logger.Errorf("deploy: %v", err)
		return out, fmt.Errorf("deploy: %w", err)
	}
	return out, nil
}
