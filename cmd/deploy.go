package cmd

import (
	"fmt"

	"deployctl/internal/stack"

	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Write .env, create volume directories and start the stack",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd, stack.ActionUp)
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Write .env and stop the stack, removing its volumes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd, stack.ActionDown)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop the stack and start it again with a freshly written .env",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeploy(cmd, stack.ActionRestart)
	},
}

func runDeploy(cmd *cobra.Command, action string) error {
	// fail before touching config or files
	if err := stack.ValidateAction(action); err != nil {
		return err
	}
	app, cfg, err := loadApp(cmd, action)
	if err != nil {
		return err
	}
	env, err := app.Deploy(cmd.Context())
	if err != nil {
		return err
	}

	p := printer(cmd)
	if p.JSONEnabled() {
		return p.PrintJSON(map[string]any{"ok": true, "action": action, "project": cfg.Project, "env_file": cfg.EnvFile, "main_url": env["MAIN_URL"]})
	}
	switch action {
	case stack.ActionDown:
		fmt.Printf("Stopped %s\n", cfg.Project)
	default:
		fmt.Printf("Started %s at %s\n", cfg.Project, env["MAIN_URL"])
	}
	return nil
}

func init() {
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(restartCmd)
}
