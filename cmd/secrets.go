package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"deployctl/internal/secrets"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the optional SMTP and identity secret files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var secretsInitCmd = &cobra.Command{
	Use:       "init [smtp|identity]",
	Short:     "Interactively create a secret file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"smtp", "identity"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")

		pr := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
		var value interface{ Validate() error }
		switch args[0] {
		case "smtp":
			if path == "" {
				path = cfg.SMTPSecrets
			}
			value, err = promptSMTP(pr)
		case "identity":
			if path == "" {
				path = cfg.IdentitySecrets
			}
			value, err = promptIdentity(pr)
		default:
			return fmt.Errorf("unknown secret kind: %s (expected smtp or identity)", args[0])
		}
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := value.Validate(); err != nil {
			return fmt.Errorf("invalid %s secrets: %w", args[0], err)
		}
		if err := secrets.Save(path, value); err != nil {
			return err
		}
		fmt.Printf("Saved %s secrets to %s\n", args[0], path)
		return nil
	},
}

var secretsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configured secret files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		smtpPath, smtpRequired := cfg.SMTPSecrets, false
		if v, _ := cmd.Flags().GetString("smtp-secrets"); v != "" {
			smtpPath, smtpRequired = v, true
		}
		idPath, idRequired := cfg.IdentitySecrets, false
		if v, _ := cmd.Flags().GetString("identity-secrets"); v != "" {
			idPath, idRequired = v, true
		}

		smtp, err := secrets.LoadSMTP(smtpPath, smtpRequired)
		if err != nil {
			return fmt.Errorf("smtp secrets: %w", err)
		}
		identity, err := secrets.LoadIdentity(idPath, idRequired)
		if err != nil {
			return fmt.Errorf("identity secrets: %w", err)
		}

		status := func(present bool) string {
			if present {
				return "ok"
			}
			return "absent"
		}
		rows := [][]string{
			{"smtp", smtpPath, status(smtp != nil)},
			{"identity", idPath, status(identity != nil)},
		}
		return printer(cmd).PrintOrTable([]string{"KIND", "PATH", "STATUS"}, rows, map[string]any{
			"smtp":     map[string]any{"path": smtpPath, "present": smtp != nil},
			"identity": map[string]any{"path": idPath, "present": identity != nil},
		})
	},
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return s, nil
}

// hidden reads without echo when stdin is a terminal.
func (p *prompter) hidden(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.line(label+" (not hidden)", "")
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func promptSMTP(p *prompter) (*secrets.SMTP, error) {
	s := &secrets.SMTP{}
	var err error
	if s.Host, err = p.line("SMTP host", ""); err != nil {
		return nil, err
	}
	port, err := p.line("SMTP port", "587")
	if err != nil {
		return nil, err
	}
	if s.Port, err = strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	if s.Username, err = p.line("Username", ""); err != nil {
		return nil, err
	}
	if s.Password, err = p.hidden("Password"); err != nil {
		return nil, err
	}
	if s.FromAddress, err = p.line("From address", ""); err != nil {
		return nil, err
	}
	if s.FromName, err = p.line("From name", ""); err != nil {
		return nil, err
	}
	secure, err := p.line("Use TLS (y/N)", "n")
	if err != nil {
		return nil, err
	}
	s.Secure = strings.HasPrefix(strings.ToLower(secure), "y")
	return s, nil
}

func promptIdentity(p *prompter) (*secrets.Identity, error) {
	id := &secrets.Identity{}
	fields := []struct {
		label string
		def   string
		dst   *string
	}{
		{"Display name", "", &id.DisplayName},
		{"Provider URL", "", &id.URL},
		{"Authorization URL", "", &id.AuthURL},
		{"Token URL", "", &id.TokenURL},
		{"Userinfo URL", "", &id.UserInfoURL},
		{"Client ID", "", &id.ClientID},
	}
	for _, f := range fields {
		v, err := p.line(f.label, f.def)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	var err error
	if id.ClientSecret, err = p.hidden("Client secret"); err != nil {
		return nil, err
	}
	if id.Scope, err = p.line("Scope", "openid profile email"); err != nil {
		return nil, err
	}
	return id, nil
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsInitCmd)
	secretsCmd.AddCommand(secretsCheckCmd)
	secretsInitCmd.Flags().StringP("file", "f", "", "Where to write the secret file (default from config)")
	secretsInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}
