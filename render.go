package newsletter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Renderer turns an MJML document into delivery markup.
type Renderer interface {
	Render(ctx context.Context, mjml string) (string, error)
}

// MarkupRenderer returns the MJML document unchanged.
type MarkupRenderer struct{}

// Render implements Renderer.
func (MarkupRenderer) Render(_ context.Context, mjml string) (string, error) {
	return mjml, nil
}

// DefaultRendererArgs make the mjml command read stdin and write minified
// HTML to stdout.
var DefaultRendererArgs = []string{"-i", "-s", "--config.minify", "true"}

// ExecRenderer pipes the document through an external program, the mjml
// command line tool by default.
type ExecRenderer struct {
	Command string
	Args    []string

	programs *Registry[string]
	log      *zap.Logger
}

// NewExecRenderer returns a renderer running command. Program lookups are
// shared through programs, which may be nil.
func NewExecRenderer(command string, args []string, programs *Registry[string], log *zap.Logger) *ExecRenderer {
	if command == "" {
		command = "mjml"
	}
	if args == nil {
		args = DefaultRendererArgs
	}
	if programs == nil {
		programs = NewRegistry[string]()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ExecRenderer{Command: command, Args: args, programs: programs, log: log.Named("renderer")}
}

// Render implements Renderer.
func (r *ExecRenderer) Render(ctx context.Context, mjml string) (string, error) {
	program, err := r.programs.Load(ctx, r.Command, func(context.Context) (string, error) {
		return exec.LookPath(r.Command)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, program, r.Args...)
	cmd.Stdin = strings.NewReader(mjml)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("Rendering", zap.String("program", program), zap.Strings("args", r.Args))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %w: %s", ErrRender, err, msg)
		}
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		r.log.Warn("Renderer reported problems", zap.String("output", msg))
	}
	return stdout.String(), nil
}
