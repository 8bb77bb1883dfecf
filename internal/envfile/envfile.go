// Package envfile reads, merges and writes the KEY=VALUE file consumed by docker compose.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Env is a flat mapping of variable names to values.
type Env map[string]string

// Read parses path. A missing file yields an empty Env.
func Read(path string) (Env, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Env{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Env(m), nil
}

// Write serializes env to path with mode 0600, replacing any existing file.
// Values are written so that both Read and docker compose return them unchanged.
func Write(path string, env Env) error {
	content, err := Marshal(env)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Marshal renders env as sorted KEY=VALUE lines. Values are single-quoted
// (taken literally by both parsers) unless they contain a single quote or a line
// break; those are double-quoted with only \\, \", \$ and \n, \r escaped.
func Marshal(env Env) (string, error) {
	var b strings.Builder
	for _, k := range Keys(env) {
		v, err := quote(env[k])
		if err != nil {
			return "", fmt.Errorf("%s: %w", k, err)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ErrUnquotable is returned for values that no quoting style reads back intact:
// a trailing backslash escapes the closing quote, and a trailing double quote is
// trimmed by godotenv.
var ErrUnquotable = errors.New("value cannot be written to an env file unchanged")

var doubleQuoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "\n", `\n`, "\r", `\r`)

func quote(v string) (string, error) {
	if strings.HasSuffix(v, `\`) {
		return "", ErrUnquotable
	}
	if !strings.ContainsAny(v, "'\n\r") {
		return "'" + v + "'", nil
	}
	if strings.HasSuffix(v, `"`) {
		return "", ErrUnquotable
	}
	return `"` + doubleQuoteEscaper.Replace(v) + `"`, nil
}

// Merge combines layers left to right; a key in a later layer replaces the earlier value.
func Merge(layers ...Env) Env {
	out := Env{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Keys returns the keys of env in sorted order.
func Keys(env Env) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var secretMarkers = []string{"PASSWORD", "PASS", "SECRET", "CLIENT_ID", "DATABASE_URL", "TOKEN"}

// IsSecret reports whether key names a credential that should not be echoed.
func IsSecret(key string) bool {
	k := strings.ToUpper(key)
	for _, m := range secretMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}

// Mask redacts value, keeping a short prefix of long values as a hint.
func Mask(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:4] + "********"
}
