package cmd

import (
	"fmt"
	"os"

	"deployctl/internal/compose"
	"deployctl/internal/logging"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the stack's containers via the Docker Engine API",
	Long:  "List the stack's containers via the Docker Engine API. When the API cannot be reached, the output of 'docker compose ps' is shown instead.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		containers, err := listContainers(cmd, cfg.Project)
		if err != nil {
			logging.WithProject(cfg.Project).Warn("docker api unavailable, falling back to compose ps", "error", err)
			return composePS(cmd)
		}

		p := printer(cmd)
		if p.JSONEnabled() {
			return p.PrintJSON(containers)
		}
		if len(containers) == 0 {
			fmt.Printf("No containers for project %s\n", cfg.Project)
			return nil
		}
		rows := make([][]string, 0, len(containers))
		for _, c := range containers {
			rows = append(rows, []string{c.Service, c.Name, c.State, c.Status, c.Image})
		}
		return p.Table([]string{"SERVICE", "NAME", "STATE", "STATUS", "IMAGE"}, rows)
	},
}

func listContainers(cmd *cobra.Command, project string) ([]compose.ContainerInfo, error) {
	cli, err := newDockerClient()
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	defer cli.Close()
	return compose.ListContainers(cmd.Context(), cli, project)
}

// composePS prints `docker compose ps` for the stack, as JSON when requested.
func composePS(cmd *cobra.Command) error {
	app, _, err := loadApp(cmd, "")
	if err != nil {
		return err
	}
	format := ""
	if printer(cmd).JSONEnabled() {
		format = "json"
	}
	out, err := app.Compose().PS(cmd.Context(), format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
