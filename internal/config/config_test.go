package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	for _, k := range []string{"DEPLOY_PROJECT", "DEPLOY_ENV_FILE", "DEPLOY_VOLUME_ROOT", "DEPLOY_SMTP_SECRETS",
		"DEPLOY_IDENTITY_SECRETS", "DEPLOY_USER", "DEPLOY_HOST", "DEPLOY_PROTOCOL"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_DefaultsWithoutFiles(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Source())
}

func TestLoad_LocalFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalFile), []byte(`
project = "shop"
volume_root = "/srv/data"
volume_dirs = ["pg"]

[defaults]
host = "example.org"
protocol = "https"
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Project)
	assert.Equal(t, "example.org", cfg.Defaults.Host)
	assert.Equal(t, "https", cfg.Defaults.Protocol)
	assert.Equal(t, "user", cfg.Defaults.User, "unset keys keep defaults")
	assert.Equal(t, []string{"/srv/data/shop/pg"}, cfg.VolumePaths())
	assert.Equal(t, LocalFile, cfg.Source())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(p, []byte("project = "), 0o644))
	_, err := Load(p)
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("DEPLOY_PROJECT", "blog")
	t.Setenv("DEPLOY_HOST", "blog.example.net")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "blog", cfg.Project)
	assert.Equal(t, "blog.example.net", cfg.Defaults.Host)
}

func TestLoad_RejectsUnknownProtocol(t *testing.T) {
	dir := isolate(t)
	t.Setenv("DEPLOY_PROTOCOL", "ftp")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ftp"`)

	t.Setenv("DEPLOY_PROTOCOL", "")
	p := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(p, []byte("[defaults]\nprotocol = \"gopher\"\n"), 0o644))
	_, err = Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"gopher"`)
}

func TestValidateProtocol(t *testing.T) {
	assert.NoError(t, ValidateProtocol("http"))
	assert.NoError(t, ValidateProtocol("https"))
	assert.Error(t, ValidateProtocol("HTTP"))
	assert.Error(t, ValidateProtocol(""))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	p := filepath.Join(dir, "nested", "deploy.toml")
	in := Default()
	in.Project = "crm"
	require.NoError(t, Save(in, p))

	out, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "crm", out.Project)
	assert.Equal(t, in.VolumeDirs, out.VolumeDirs)
	assert.Equal(t, p, out.Source())
}

func TestVolumePaths_Default(t *testing.T) {
	assert.Equal(t, []string{
		"/mnt/volume-db/postiz/redis",
		"/mnt/volume-db/postiz/postgress",
	}, Default().VolumePaths())
}
