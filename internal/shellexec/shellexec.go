// Package shellexec is the external-program executor backing the Exec
// template kind (spec.md §3/§5): it renders an argv template through
// internal/templates, then runs the resulting program with a hard timeout
// and the shell disabled — os/exec.Command never goes through /bin/sh, so
// no template-supplied text is ever re-interpreted as shell syntax.
package shellexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/l0p7/tmplengine/internal/templates"
)

// DefaultTimeout bounds a Run call when the caller's context carries no
// deadline of its own, matching the original engine's conservative default
// for backend-style subprocess calls.
const DefaultTimeout = 5 * time.Second

var defaultRenderer = templates.NewRenderer(nil)

// Run renders argvTemplate (a single text/template source whose rendered
// output is split on whitespace into argv[0..]) with env available as
// {{ .env.NAME }}, then executes argv[0] with argv[1:] as arguments. The
// program's combined stdout is returned; stderr is folded into the returned
// error when the command fails.
//
// The shell is never invoked: argv[0] is executed directly via exec.Command,
// so no amount of attacker-controlled template output can inject additional
// shell commands.
func Run(ctx context.Context, argvTemplate string, env map[string]string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	rendered, err := renderArgv(argvTemplate, env)
	if err != nil {
		return "", fmt.Errorf("shellexec: render argv: %w", err)
	}

	argv := strings.Fields(rendered)
	if len(argv) == 0 {
		return "", fmt.Errorf("shellexec: argv template rendered no program name")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("shellexec: %q timed out: %w", argv[0], ctx.Err())
		}
		return "", fmt.Errorf("shellexec: %q failed: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

func renderArgv(argvTemplate string, env map[string]string) (string, error) {
	tmpl, err := defaultRenderer.CompileInline("argv", argvTemplate)
	if err != nil {
		return "", err
	}
	if tmpl == nil {
		return "", nil
	}
	return tmpl.Render(map[string]any{"env": env})
}
