package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// LocalFile is the project-local config file looked up in the working directory.
const LocalFile = "deploy.toml"

// Config holds deployment settings loaded from deploy.toml (or the user config
// file) and environment variables. Environment variables always take precedence.
type Config struct {
	Project         string   `toml:"project"`
	EnvFile         string   `toml:"env_file"`
	VolumeRoot      string   `toml:"volume_root"`
	VolumeDirs      []string `toml:"volume_dirs"`
	ComposeCommand  []string `toml:"compose_command"`
	ComposeFiles    []string `toml:"compose_files,omitempty"`
	SMTPSecrets     string   `toml:"smtp_secrets"`
	IdentitySecrets string   `toml:"identity_secrets"`
	Defaults        Defaults `toml:"defaults"`

	// path the config was read from, empty when only defaults apply
	source string
}

// Defaults are used for --user, --host and --protocol when the flags are not given.
type Defaults struct {
	User     string `toml:"user"`
	Host     string `toml:"host"`
	Protocol string `toml:"protocol"`
}

// Default returns the built-in configuration for the postiz stack.
func Default() *Config {
	return &Config{
		Project:         "postiz",
		EnvFile:         ".env",
		VolumeRoot:      "/mnt/volume-db",
		VolumeDirs:      []string{"redis", "postgress"},
		ComposeCommand:  []string{"docker", "compose"},
		SMTPSecrets:     filepath.Join("secrets", "smtp.json"),
		IdentitySecrets: filepath.Join("secrets", "identity.json"),
		Defaults: Defaults{
			User:     "user",
			Host:     "localhost",
			Protocol: "http",
		},
	}
}

// UserPath returns ~/.config/deployctl/config.toml (platform equivalent).
func UserPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "deployctl", "config.toml"), nil
}

// Load reads configuration from path when given, otherwise from ./deploy.toml,
// falling back to the user config file, and finally overlays environment
// variables. Missing files are fine unless path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidates := []string{}
	if path != "" {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, LocalFile)
		if p, err := UserPath(); err == nil {
			candidates = append(candidates, p)
		}
	}

	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == "" {
				continue
			}
			return nil, err
		}
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, err
		}
		cfg.source = p
		break
	}

	overlayEnv(cfg)
	if err := ValidateProtocol(cfg.Defaults.Protocol); err != nil {
		return nil, fmt.Errorf("defaults.protocol (or DEPLOY_PROTOCOL): %w", err)
	}
	return cfg, nil
}

// ValidateProtocol accepts the URL schemes the stack can be served on.
func ValidateProtocol(p string) error {
	if p != "http" && p != "https" {
		return fmt.Errorf("%q: expected http or https", p)
	}
	return nil
}

// Source reports which file the configuration came from, or "" for built-in defaults.
func (c *Config) Source() string { return c.source }

// Save writes the configuration to TOML at path. File mode 0644.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	buf, err := toml.Marshal(*cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// VolumePaths returns the host directories that back the stack's persistent volumes.
func (c *Config) VolumePaths() []string {
	paths := make([]string, 0, len(c.VolumeDirs))
	for _, d := range c.VolumeDirs {
		paths = append(paths, filepath.Join(c.VolumeRoot, c.Project, d))
	}
	return paths
}

func overlayEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set("DEPLOY_PROJECT", &cfg.Project)
	set("DEPLOY_ENV_FILE", &cfg.EnvFile)
	set("DEPLOY_VOLUME_ROOT", &cfg.VolumeRoot)
	set("DEPLOY_SMTP_SECRETS", &cfg.SMTPSecrets)
	set("DEPLOY_IDENTITY_SECRETS", &cfg.IdentitySecrets)
	set("DEPLOY_USER", &cfg.Defaults.User)
	set("DEPLOY_HOST", &cfg.Defaults.Host)
	set("DEPLOY_PROTOCOL", &cfg.Defaults.Protocol)
}
