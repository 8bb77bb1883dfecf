// Package secrets loads the optional SMTP and identity-provider secret files
// and maps them onto stack environment variables.
package secrets

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"deployctl/internal/envfile"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

// ErrNotFound is returned when a secret file that was explicitly requested does not exist.
var ErrNotFound = errors.New("secret file not found")

//go:embed schema/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://deployctl.local/schema/"

const (
	smtpSchema     = "smtp.schema.json"
	identitySchema = "identity.schema.json"
)

var (
	schemaOnce sync.Once
	schemaErr  error
	compiled   map[string]*jsonschema.Schema
)

// SMTP holds outgoing mail settings.
type SMTP struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	Secure      bool   `json:"secure,omitempty"`
}

// Env returns the mail variables understood by the application container.
func (s *SMTP) Env() envfile.Env {
	env := envfile.Env{
		"EMAIL_PROVIDER":     "nodemailer",
		"EMAIL_HOST":         s.Host,
		"EMAIL_PORT":         strconv.Itoa(s.Port),
		"EMAIL_SECURE":       strconv.FormatBool(s.Secure),
		"EMAIL_FROM_ADDRESS": s.FromAddress,
	}
	if s.Username != "" {
		env["EMAIL_USER"] = s.Username
	}
	if s.Password != "" {
		env["EMAIL_PASS"] = s.Password
	}
	if s.FromName != "" {
		env["EMAIL_FROM_NAME"] = s.FromName
	}
	return env
}

// Identity describes a generic OAuth/OIDC provider used for user sign-in.
type Identity struct {
	DisplayName  string `json:"display_name,omitempty"`
	URL          string `json:"url,omitempty"`
	AuthURL      string `json:"auth_url"`
	TokenURL     string `json:"token_url"`
	UserInfoURL  string `json:"userinfo_url"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Scope        string `json:"scope,omitempty"`
}

// Env returns the generic OAuth variables. The client credentials replace generated ones.
func (i *Identity) Env() envfile.Env {
	env := envfile.Env{
		"POSTIZ_GENERIC_OAUTH":       "true",
		"POSTIZ_OAUTH_AUTH_URL":      i.AuthURL,
		"POSTIZ_OAUTH_TOKEN_URL":     i.TokenURL,
		"POSTIZ_OAUTH_USERINFO_URL":  i.UserInfoURL,
		"POSTIZ_OAUTH_CLIENT_ID":     i.ClientID,
		"POSTIZ_OAUTH_CLIENT_SECRET": i.ClientSecret,
	}
	if i.URL != "" {
		env["POSTIZ_OAUTH_URL"] = i.URL
	}
	if i.Scope != "" {
		env["POSTIZ_OAUTH_SCOPE"] = i.Scope
	}
	if i.DisplayName != "" {
		env["NEXT_PUBLIC_POSTIZ_OAUTH_DISPLAY_NAME"] = i.DisplayName
	}
	return env
}

// LoadSMTP reads the SMTP secret file at path. When required is false a missing
// file yields (nil, nil).
func LoadSMTP(path string, required bool) (*SMTP, error) {
	var s SMTP
	ok, err := load(path, required, smtpSchema, &s)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

// LoadIdentity reads the identity secret file at path. When required is false a
// missing file yields (nil, nil).
func LoadIdentity(path string, required bool) (*Identity, error) {
	var i Identity
	ok, err := load(path, required, identitySchema, &i)
	if err != nil || !ok {
		return nil, err
	}
	return &i, nil
}

// Validate checks s against the SMTP schema.
func (s *SMTP) Validate() error { return validate(smtpSchema, s) }

// Validate checks i against the identity schema.
func (i *Identity) Validate() error { return validate(identitySchema, i) }

func validate(schemaName string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var document any
	if err := json.Unmarshal(b, &document); err != nil {
		return err
	}
	sch, err := schemaFor(schemaName)
	if err != nil {
		return err
	}
	return sch.Validate(document)
}

// Save writes v as indented JSON readable only by the owner.
func Save(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o600)
}

func load(path string, required bool, schemaName string, out any) (bool, error) {
	if path == "" {
		if required {
			return false, fmt.Errorf("%w: no path given", ErrNotFound)
		}
		return false, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if required {
				return false, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			return false, nil
		}
		return false, err
	}

	// JSON is a subset of YAML, so both formats go through the same conversion.
	jsonData, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	sch, err := schemaFor(schemaName)
	if err != nil {
		return false, err
	}
	if err := sch.Validate(document); err != nil {
		return false, fmt.Errorf("invalid %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonData, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

func schemaFor(name string) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled = map[string]*jsonschema.Schema{}
		for _, n := range []string{smtpSchema, identitySchema} {
			f, err := schemaFS.Open("schema/" + n)
			if err != nil {
				schemaErr = err
				return
			}
			err = compiler.AddResource(schemaBaseURL+n, f)
			f.Close()
			if err != nil {
				schemaErr = err
				return
			}
			sch, err := compiler.Compile(schemaBaseURL + n)
			if err != nil {
				schemaErr = fmt.Errorf("compile %s: %w", n, err)
				return
			}
			compiled[n] = sch
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	return compiled[name], nil
}
