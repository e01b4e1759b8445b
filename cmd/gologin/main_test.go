package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"login", "create-user", "remove-user", "change-password", "reset-password", "status", "logout", "demo"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gologin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target: https://fileapp.example.com
store: REDIS
redis-addr: 127.0.0.1:6379
timeout: 5s
demo-users:
  - a@b.com:pw
`), 0o600))

	cmd := NewRootCmd()
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--slot", "work", "--timeout", "2s"}))

	cfg, err := loadConfig(path, cmd.PersistentFlags())
	require.NoError(t, err)
	assert.Equal(t, "https://fileapp.example.com", cfg.Target)
	assert.Equal(t, storeRedis, cfg.Store)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "work", cfg.Slot)
	assert.Equal(t, 2*time.Second, cfg.Timeout, "explicit flags win over the file")
	assert.Equal(t, []string{"a@b.com:pw"}, cfg.DemoUsers)
	assert.Equal(t, defaultCLIConfig().APIHost, cfg.APIHost)

	engineCfg := cfg.engineConfig("")
	assert.Equal(t, "work", engineCfg.Session.Slot)
	assert.Equal(t, 2*time.Second, engineCfg.FlowTimeout)
	require.NoError(t, engineCfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*cliConfig)
		wantErr bool
	}{
		{"demo defaults", func(c *cliConfig) { c.Demo = true }, false},
		{"secret without demo", func(c *cliConfig) { c.TokenSecret = "s" }, false},
		{"no secret", func(c *cliConfig) {}, true},
		{"unknown store", func(c *cliConfig) { c.Demo = true; c.Store = "etcd" }, true},
		{"redis without addr", func(c *cliConfig) { c.Demo = true; c.Store = storeRedis }, true},
		{"sqlite without path", func(c *cliConfig) { c.Demo = true; c.SQLitePath = " " }, true},
		{"bad demo user", func(c *cliConfig) { c.Demo = true; c.DemoUsers = []string{"nocolon"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCLIConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDemoCommandRunsEveryFlow(t *testing.T) {
	output, err := execute(t, "demo")
	require.NoError(t, err)

	for _, step := range []string{"create user", "login with email", "restore session", "change password", "logout", "remove user"} {
		assert.Contains(t, output, step)
	}
	assert.Contains(t, output, "(password)")
	assert.Contains(t, output, "(google)")
	assert.Contains(t, output, "gologin_login_success_total 5\n")
	assert.Contains(t, output, "gologin_account_created_total 1\n")
	assert.Contains(t, output, "gologin_session_restored_total 1\n")
}

func TestSessionSurvivesAcrossRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "session.db")
	common := []string{"--demo", "--store", "sqlite", "--sqlite-path", db}

	output, err := execute(t, append([]string{"login", "email", "a@b.com", "pw", "--demo-users", "a@b.com:pw"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, output, "provider: password")

	output, err = execute(t, append([]string{"status"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, output, "email:    a@b.com")

	output, err = execute(t, append([]string{"logout"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, output, "logged out")

	output, err = execute(t, append([]string{"status"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, output, "not logged in")
}

func TestLoginFailureReportsKind(t *testing.T) {
	_, err := execute(t, "login", "email", "a@b.com", "wrong", "--demo", "--store", "memory", "--demo-users", "a@b.com:pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidPassword")

	_, err = execute(t, "login", "twitter", "tok", "secret", "not-a-number", "--demo", "--store", "memory")
	assert.Error(t, err)
}
