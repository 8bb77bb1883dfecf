package cmd

import (
	"fmt"
	"os"

	"deployctl/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage deploy.toml",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a deploy.toml with the built-in defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.LocalFile
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and where it came from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		source := cfg.Source()
		if source == "" {
			source = "(built-in defaults)"
		}
		p := printer(cmd)
		if p.JSONEnabled() {
			return p.PrintJSON(map[string]any{"source": source, "config": cfg})
		}
		fmt.Printf("Source: %s\n", source)
		rows := [][]string{
			{"project", cfg.Project},
			{"env_file", cfg.EnvFile},
			{"volume_root", cfg.VolumeRoot},
			{"compose_command", fmt.Sprint(cfg.ComposeCommand)},
			{"smtp_secrets", cfg.SMTPSecrets},
			{"identity_secrets", cfg.IdentitySecrets},
			{"defaults.user", cfg.Defaults.User},
			{"defaults.host", cfg.Defaults.Host},
			{"defaults.protocol", cfg.Defaults.Protocol},
		}
		for _, v := range cfg.VolumePaths() {
			rows = append(rows, []string{"volume", v})
		}
		return p.Table([]string{"KEY", "VALUE"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
