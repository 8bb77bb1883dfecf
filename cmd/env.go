package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect or generate the stack .env file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var envShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved environment without writing it",
	Long: `Print the environment that the next deploy would write: defaults, values
already persisted in the env file, secret files and flags, merged in that order.
Credentials are masked unless --reveal is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := loadApp(cmd, "")
		if err != nil {
			return err
		}
		env, err := app.Resolve()
		if err != nil {
			return err
		}
		reveal, _ := cmd.Flags().GetBool("reveal")
		return printer(cmd).PrintEnv(env, reveal)
	},
}

var envGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the env file without calling docker compose",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := loadApp(cmd, "")
		if err != nil {
			return err
		}
		env, err := app.Configure()
		if err != nil {
			return err
		}
		p := printer(cmd)
		if p.JSONEnabled() {
			return p.PrintJSON(map[string]any{"env_file": cfg.EnvFile, "keys": len(env)})
		}
		fmt.Printf("Wrote %d variables to %s\n", len(env), cfg.EnvFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envShowCmd)
	envCmd.AddCommand(envGenerateCmd)
	envShowCmd.Flags().Bool("reveal", false, "Show credential values in clear text")
}
