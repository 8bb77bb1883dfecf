// Package stack assembles the environment of a compose-managed application
// stack and drives its lifecycle.
package stack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deployctl/internal/compose"
	"deployctl/internal/config"
	"deployctl/internal/envfile"
	"deployctl/internal/logging"
	"deployctl/internal/password"
	"deployctl/internal/secrets"
)

// Actions accepted by Deploy.
const (
	ActionUp      = "up"
	ActionDown    = "down"
	ActionRestart = "restart"
)

// Actions lists the accepted actions in usage order.
var Actions = []string{ActionUp, ActionDown, ActionRestart}

// ErrUnknownAction is wrapped by UnknownActionError.
var ErrUnknownAction = errors.New("unknown action")

// UnknownActionError reports an action outside Actions.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("Unknown command: %s\nAvailable commands: %s", e.Action, strings.Join(Actions, ", "))
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// ValidateAction returns an *UnknownActionError unless action is one of Actions.
func ValidateAction(action string) error {
	for _, a := range Actions {
		if action == a {
			return nil
		}
	}
	return &UnknownActionError{Action: action}
}

// Options are the per-invocation inputs.
type Options struct {
	Action   string
	User     string
	Host     string
	Protocol string

	// SMTPSecrets and IdentitySecrets, when set, name secret files that must exist.
	SMTPSecrets     string
	IdentitySecrets string

	// Overrides are values the operator set explicitly. They beat everything else.
	Overrides envfile.Env
}

// App is one deployable stack.
type App struct {
	cfg      *config.Config
	opts     Options
	compose  *compose.Client
	generate func(int) string
}

// New builds an App from configuration and options. Empty User/Host/Protocol
// fall back to the configured defaults.
func New(cfg *config.Config, opts Options, runner compose.CommandRunner) *App {
	if opts.User == "" {
		opts.User = cfg.Defaults.User
	}
	if opts.Host == "" {
		opts.Host = cfg.Defaults.Host
	}
	if opts.Protocol == "" {
		opts.Protocol = cfg.Defaults.Protocol
	}
	return &App{
		cfg:  cfg,
		opts: opts,
		compose: &compose.Client{
			Runner:  runner,
			Command: cfg.ComposeCommand,
			Project: cfg.Project,
			EnvFile: cfg.EnvFile,
			Files:   cfg.ComposeFiles,
		},
		generate: password.MustGenerate,
	}
}

// Compose exposes the compose client used by the app.
func (a *App) Compose() *compose.Client { return a.compose }

// Defaults returns the default key set, including freshly generated credentials.
func (a *App) Defaults() envfile.Env {
	p := a.cfg.Project
	env := envfile.Env{
		"POSTGRES_USER":                p + "-user",
		"POSTGRES_PASSWORD":            a.generate(password.DefaultLength),
		"POSTGRES_DB":                  p + "-db-local",
		"OGNA_USER":                    a.opts.User,
		"OGNA_HOST":                    a.opts.Host,
		"OGNA_PROTOCOL":                a.opts.Protocol,
		"JWT_SECRET":                   a.generate(password.DefaultLength),
		"REDIS_URL":                    fmt.Sprintf("redis://%s-redis:6379", p),
		"BACKEND_INTERNAL_URL":         "http://localhost:3000",
		"IS_GENERAL":                   "true",
		"DISABLE_REGISTRATION":         "true",
		"STORAGE_PROVIDER":             "local",
		"UPLOAD_DIRECTORY":             "/uploads",
		"NEXT_PUBLIC_UPLOAD_DIRECTORY": "/uploads",
		"POSTIZ_GENERIC_OAUTH":         "true",
		"POSTIZ_OAUTH_CLIENT_ID":       a.generate(30),
		"POSTIZ_OAUTH_CLIENT_SECRET":   a.generate(password.DefaultLength),
	}
	applyDerived(env, p)
	return env
}

// Resolve merges defaults, the persisted env file, secret files and explicit
// overrides, in increasing precedence, then recomputes the derived keys.
func (a *App) Resolve() (envfile.Env, error) {
	persisted, err := envfile.Read(a.cfg.EnvFile)
	if err != nil {
		return nil, err
	}

	smtpPath, smtpRequired := pick(a.opts.SMTPSecrets, a.cfg.SMTPSecrets)
	smtp, err := secrets.LoadSMTP(smtpPath, smtpRequired)
	if err != nil {
		return nil, fmt.Errorf("smtp secrets: %w", err)
	}
	idPath, idRequired := pick(a.opts.IdentitySecrets, a.cfg.IdentitySecrets)
	identity, err := secrets.LoadIdentity(idPath, idRequired)
	if err != nil {
		return nil, fmt.Errorf("identity secrets: %w", err)
	}

	layers := []envfile.Env{a.Defaults(), persisted}
	if smtp != nil {
		layers = append(layers, smtp.Env())
	}
	if identity != nil {
		layers = append(layers, identity.Env())
	}
	layers = append(layers, a.opts.Overrides)

	env := envfile.Merge(layers...)
	applyDerived(env, a.cfg.Project)

	logging.WithProject(a.cfg.Project).Debug("environment resolved",
		"keys", len(env), "persisted", len(persisted), "smtp", smtp != nil, "identity", identity != nil)
	return env, nil
}

// Configure resolves the environment and writes it to the env file.
func (a *App) Configure() (envfile.Env, error) {
	env, err := a.Resolve()
	if err != nil {
		return nil, err
	}
	if err := envfile.Write(a.cfg.EnvFile, env); err != nil {
		return nil, err
	}
	logging.WithProject(a.cfg.Project).Info("env file written", "path", a.cfg.EnvFile, "keys", len(env))
	return env, nil
}

// Deploy writes the env file and runs the requested action, returning the
// environment that was written. The action is validated first so an unknown
// action leaves nothing behind.
func (a *App) Deploy(ctx context.Context) (envfile.Env, error) {
	if err := ValidateAction(a.opts.Action); err != nil {
		return nil, err
	}
	env, err := a.Configure()
	if err != nil {
		return nil, err
	}
	switch a.opts.Action {
	case ActionDown:
		err = a.compose.Down(ctx, true)
	default:
		if err := compose.ProvisionVolumes(a.cfg.VolumePaths()); err != nil {
			return nil, err
		}
		if a.opts.Action == ActionRestart {
			err = a.compose.Restart(ctx)
		} else {
			err = a.compose.Up(ctx)
		}
	}
	if err != nil {
		return nil, err
	}
	return env, nil
}

// HostOverrides maps explicitly given user/host/protocol values onto their
// variables. Empty arguments are skipped.
func HostOverrides(user, host, protocol string) envfile.Env {
	env := envfile.Env{}
	if user != "" {
		env["OGNA_USER"] = user
	}
	if host != "" {
		env["OGNA_HOST"] = host
	}
	if protocol != "" {
		env["OGNA_PROTOCOL"] = protocol
	}
	return env
}

// applyDerived sets keys computed from other keys so they never drift apart.
func applyDerived(env envfile.Env, project string) {
	base := fmt.Sprintf("%s://%s.%s.%s", env["OGNA_PROTOCOL"], project, env["OGNA_USER"], env["OGNA_HOST"])
	env["MAIN_URL"] = base
	env["FRONTEND_URL"] = base
	env["NEXT_PUBLIC_BACKEND_URL"] = base + "/api"
	env["DATABASE_URL"] = fmt.Sprintf("postgresql://%s:%s@%s-postgres:5432/%s",
		env["POSTGRES_USER"], env["POSTGRES_PASSWORD"], project, env["POSTGRES_DB"])
}

// pick prefers an explicitly requested path, which then must exist.
func pick(explicit, configured string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	return configured, false
}
