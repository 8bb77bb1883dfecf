// Package compose drives the docker compose CLI for a single project and
// prepares the host directories its volumes are bound to.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"deployctl/internal/logging"
)

// Client runs docker compose subcommands for one project.
type Client struct {
	Runner  CommandRunner
	Command []string // e.g. ["docker", "compose"]
	Project string
	EnvFile string
	Files   []string
	Dir     string
}

// Args returns the full argument vector (excluding the binary) for sub.
func (c *Client) Args(sub ...string) []string {
	args := append([]string{}, c.Command[1:]...)
	args = append(args, "-p", c.Project)
	if c.EnvFile != "" {
		args = append(args, "--env-file", c.EnvFile)
	}
	for _, f := range c.Files {
		args = append(args, "-f", f)
	}
	return append(args, sub...)
}

// Up starts the project's services in the background.
func (c *Client) Up(ctx context.Context) error {
	return c.run(ctx, "up", "-d")
}

// Down stops the project. With removeVolumes the named volumes are removed too.
func (c *Client) Down(ctx context.Context, removeVolumes bool) error {
	if removeVolumes {
		return c.run(ctx, "down", "-v")
	}
	return c.run(ctx, "down")
}

// Restart tears the project down, volumes included, and starts it again so that
// a freshly written env file is picked up by every container.
func (c *Client) Restart(ctx context.Context) error {
	if err := c.Down(ctx, true); err != nil {
		return err
	}
	return c.Up(ctx)
}

// PS returns the output of `docker compose ps --all`. A non-empty format is
// passed through as --format (e.g. "json").
func (c *Client) PS(ctx context.Context, format string) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	sub := []string{"ps", "--all"}
	if format != "" {
		sub = append(sub, "--format", format)
	}
	out, err := c.Runner.RunOutput(ctx, c.Dir, c.Command[0], c.Args(sub...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.describe(sub...), err)
	}
	return out, nil
}

// describe renders the command line for sub without the project flags.
func (c *Client) describe(sub ...string) string {
	return strings.Join(append(append([]string{}, c.Command...), sub...), " ")
}

func (c *Client) run(ctx context.Context, sub ...string) error {
	if err := c.check(); err != nil {
		return err
	}
	args := c.Args(sub...)
	logging.WithProject(c.Project).Info("running compose", "command", c.Command[0]+" "+strings.Join(args, " "))
	if err := c.Runner.Run(ctx, c.Dir, c.Command[0], args...); err != nil {
		return fmt.Errorf("%s: %w", c.describe(sub...), err)
	}
	return nil
}

func (c *Client) check() error {
	if c.Runner == nil {
		return errors.New("command runner is nil")
	}
	if len(c.Command) == 0 {
		return errors.New("compose command is empty")
	}
	if c.Project == "" {
		return errors.New("compose project name is empty")
	}
	return nil
}

// ProvisionVolumes creates each host directory (mkdir -p semantics).
func ProvisionVolumes(paths []string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("create volume directory %s: %w", p, err)
		}
		logging.Logger.Debug("volume directory ready", "path", p)
	}
	return nil
}
