package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"deployctl/internal/compose"
	"deployctl/internal/config"
	"deployctl/internal/logging"
	"deployctl/internal/output"
	"deployctl/internal/stack"

	"github.com/spf13/cobra"
)

// These are injected at build time via -ldflags. Defaults are for dev builds.
var (
	buildVersion = "dev"
	buildCommit  = ""
)

// Swapped in tests.
var (
	newRunner       = func() compose.CommandRunner { return compose.ExecRunner{} }
	newDockerClient = compose.NewDockerClient
)

var rootCmd = &cobra.Command{
	Use:   "deployctl",
	Short: "Generate the stack .env and drive docker compose",
	Long:  "deployctl writes the .env file for a docker compose stack (generated credentials, SMTP and identity secrets, public URLs), prepares host volume directories and brings the stack up or down.",
	Example: `  # Bring the stack up for alice on example.com over https
  deployctl --action up --user alice --host example.com --protocol https

  # Same, with subcommands
  deployctl up --user alice --host example.com --protocol https

  # Inspect what would be written (secrets masked)
  deployctl env show

  # Store SMTP credentials used on the next deploy
  deployctl secrets init smtp

  # Tear everything down, volumes included
  deployctl down`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logging.InitLogger(strings.ToLower(level), strings.ToLower(format))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("action") {
			return cmd.Help()
		}
		action, _ := cmd.Flags().GetString("action")
		return runDeploy(cmd, action)
	},
}

// Execute runs the root command.
func Execute() {
	// Show friendly suggestions for mistyped commands
	rootCmd.SuggestionsMinimumDistance = 1

	if err := rootCmd.Execute(); err != nil {
		printer(rootCmd).PrintError(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a deploy.toml (default ./deploy.toml, then the user config dir)")
	pf.BoolP("json", "j", false, "Output JSON for scripting")
	pf.StringP("output", "o", "", "Output format: json|text (alias of --json)")
	rootCmd.MarkFlagsMutuallyExclusive("json", "output")
	pf.String("log-level", "warn", "Log level: debug|info|warn|error")
	pf.String("log-format", "text", "Log format: text|json")

	pf.StringP("user", "u", "", "User name used in the public URL (default from config, else \"user\")")
	pf.String("host", "", "Base host name used in the public URL (default from config, else \"localhost\")")
	pf.String("protocol", "", "URL scheme: http|https (default from config, else \"http\")")
	pf.String("smtp-secrets", "", "SMTP secrets file (JSON or YAML); must exist when given")
	pf.String("identity-secrets", "", "Identity provider secrets file (JSON or YAML); must exist when given")

	rootCmd.Flags().StringP("action", "a", "", "Action to run: "+strings.Join(stack.Actions, "|"))

	rootCmd.Version = buildVersion
	rootCmd.InitDefaultVersionFlag()
	if f := rootCmd.Flags().Lookup("version"); f != nil {
		f.Shorthand = "v"
		f.Usage = "Show version information"
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("deployctl %s\nCommit: %s\nGo: %s\nOS/Arch: %s/%s\n", rootCmd.Version, buildCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	})

	rootCmd.SetVersionTemplate(fmt.Sprintf(`deployctl %s
Commit: %s
Go: %s
OS/Arch: %s/%s
`, "{{.Version}}", buildCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH))

	rootCmd.SetHelpTemplate(`{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}{{end}}

Usage:
  {{.UseLine}}

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}  {{rpad .Name .NamePadding}} {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}
Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}
Additional help topics:
{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}
{{end}}{{end}}{{end}}{{if .Example}}
Examples:
{{.Example}}{{end}}

Environment:
  DEPLOY_PROJECT            Compose project name (default postiz)
  DEPLOY_ENV_FILE           Env file to write (default .env)
  DEPLOY_VOLUME_ROOT        Parent of the host volume directories (default /mnt/volume-db)
  DEPLOY_USER, DEPLOY_HOST, DEPLOY_PROTOCOL
                            Defaults for --user, --host and --protocol
  DEPLOY_SMTP_SECRETS, DEPLOY_IDENTITY_SECRETS
                            Optional secret files (default secrets/smtp.json, secrets/identity.json)

Configuration:
  ./deploy.toml, or the user config dir (deployctl/config.toml). Create one with 'deployctl config init'.
  Variables from .env.local are loaded at startup without overriding the environment.
`)

	rootCmd.InitDefaultHelpFlag()
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		f.Shorthand = "h"
		f.Usage = "Show help for command"
	}
	rootCmd.InitDefaultHelpCmd()
}

// helper to access a shared output.Printer from commands
func printer(cmd *cobra.Command) output.Printer {
	jsonOut, _ := cmd.Root().PersistentFlags().GetBool("json")
	outFmt, _ := cmd.Root().PersistentFlags().GetString("output")
	if strings.EqualFold(strings.TrimSpace(outFmt), "json") {
		jsonOut = true
	}
	return output.Printer{JSON: jsonOut}
}

// loadConfig reads the configuration selected by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadApp builds the stack from config and flags. Only flags the operator
// actually set override values persisted in the env file.
func loadApp(cmd *cobra.Command, action string) (*stack.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	user, _ := cmd.Flags().GetString("user")
	host, _ := cmd.Flags().GetString("host")
	protocol, _ := cmd.Flags().GetString("protocol")
	if protocol != "" {
		if err := config.ValidateProtocol(protocol); err != nil {
			return nil, nil, fmt.Errorf("invalid --protocol: %w", err)
		}
	}
	smtpPath, _ := cmd.Flags().GetString("smtp-secrets")
	identityPath, _ := cmd.Flags().GetString("identity-secrets")

	changed := func(name, v string) string {
		if cmd.Flags().Changed(name) {
			return v
		}
		return ""
	}

	app := stack.New(cfg, stack.Options{
		Action:          action,
		User:            user,
		Host:            host,
		Protocol:        protocol,
		SMTPSecrets:     smtpPath,
		IdentitySecrets: identityPath,
		Overrides:       stack.HostOverrides(changed("user", user), changed("host", host), changed("protocol", protocol)),
	}, newRunner())
	return app, cfg, nil
}
