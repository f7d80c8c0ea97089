package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("sheet", "", "")
	fs.String("range", "", "")
	fs.String("mode", "drag", "")
	fs.Duration("timeout", selection.DefaultTimeout, "")
	fs.String("addr", DefaultAddr, "")
	fs.String("log-level", "info", "")
	fs.StringArray("map", nil, "")
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bomscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "drag", cfg.Selection.Mode)
	assert.Equal(t, selection.ModeDrag, cfg.SelectionMode())
	assert.Equal(t, 15*time.Second, cfg.Selection.Timeout)
	assert.Equal(t, 10.0, cfg.Selection.MoveThreshold)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultArchivePath, cfg.Archive.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Mapping)
}

func TestLoadPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
sheet: Parts
range: B2:F40
selection:
  mode: click
  timeout: 30s
server:
  addr: ":9000"
mapping:
  target: D
`)
	t.Setenv("BOMSCAN_SERVER__ADDR", ":9100")
	t.Setenv("BOMSCAN_LOG__LEVEL", "debug")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--timeout", "5s", "--map", "quantity=F", "--map", "target=C"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "Parts", cfg.Sheet)
	assert.Equal(t, "B2:F40", cfg.Range)
	assert.Equal(t, selection.ModeClick, cfg.SelectionMode(), "file beats defaults")
	assert.Equal(t, 5*time.Second, cfg.Selection.Timeout, "flags beat file")
	assert.Equal(t, ":9100", cfg.Server.Addr, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level)

	overrides, err := cfg.MappingOverrides()
	require.NoError(t, err)
	assert.Equal(t, map[models.Slot]int{models.SlotTarget: 3, models.SlotQuantity: 6}, overrides)
}

func TestLoadUnchangedFlagsDoNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "selection:\n  mode: click\n")

	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "click", cfg.Selection.Mode)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		args []string
	}{
		{"bad mode", "selection:\n  mode: lasso\n", nil},
		{"bad level", "log:\n  level: loud\n", nil},
		{"bad range", "range: A0:B2\n", nil},
		{"bad slot", "mapping:\n  colour: A\n", nil},
		{"bad column", "mapping:\n  target: \"12\"\n", nil},
		{"bad map flag", "sheet: BOM\n", []string{"--map", "target"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			fs := newFlags()
			require.NoError(t, fs.Parse(tt.args))
			_, err := Load(writeConfig(t, tt.body), fs)
			assert.Error(t, err)
		})
	}
}

func TestMappingOverridesColumnError(t *testing.T) {
	cfg := &Config{Mapping: map[string]string{"target": "1A"}}
	_, err := cfg.MappingOverrides()
	assert.ErrorIs(t, err, cellref.ErrInvalidReference)
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
