package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultFormat, cfg.Output.Format)
	assert.Zero(t, cfg.Output.Limit)
	assert.Equal(t, DefaultClientTimeout, cfg.Daemon.Timeout.Duration())
	assert.Empty(t, cfg.List.Sort)
	assert.Contains(t, cfg.Templates.Dmenu, "{{.ID}}")
	assert.NotNil(t, cfg.Templates.Custom)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, `
[daemon]
timeout = "750ms"

[output]
format = "json"
limit = 10

[list]
sort = "urgency"
since = "2d"

[templates.custom]
brief = "{{.AppName}}: {{.Summary}}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Daemon.Timeout.Duration())
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 10, cfg.Output.Limit)
	assert.Equal(t, "urgency", cfg.List.Sort)
	assert.Equal(t, "2d", cfg.List.Since)
	assert.Empty(t, cfg.List.Order)
	// Sections not in the file keep their defaults.
	assert.Equal(t, DefaultDmenuTmpl, cfg.Templates.Dmenu)
	assert.Equal(t, "{{.AppName}}: {{.Summary}}", cfg.GetTemplate("brief"))
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid toml", `this is not valid toml [`, "failed to parse"},
		{"unknown format", "[output]\nformat = \"xml\"", "output format"},
		{"negative limit", "[output]\nlimit = -1", "output limit"},
		{"bad timeout", "[daemon]\ntimeout = \"soon\"", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Output.Format = "yaml"
	cfg.List.Order = "asc"
	cfg.Templates.Custom["ids"] = "{{.ID}}"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_GetTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Templates.Custom["urgent"] = "{{urgencyIcon .Urgency}} {{.Summary}}"
	cfg.Templates.Custom["body"] = "{{.Body}}"

	tests := []struct {
		name string
		want string
	}{
		{"dmenu", DefaultDmenuTmpl},
		{"full", DefaultFullTmpl},
		{"body", "{{.Body}}"}, // custom shadows the built-in
		{"urgent", "{{urgencyIcon .Urgency}} {{.Summary}}"},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.GetTemplate(tt.name))
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/notid/config.toml", ConfigPath())
}
