package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/testutil"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(testutil.SamplePDB), 0o644))
	return path
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "vf", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Version)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "inspect", "interactions", "scene", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	pf := NewRootCommand().PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"config", "c", ""},
		{"log-level", "", ""},
		{"output", "o", "text"},
		{"verbose", "v", "false"},
		{"timeout", "", "30s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pf.Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestVersion_JSON(t *testing.T) {
	orig := Version
	Version = "1.4.0"
	defer func() { Version = orig }()

	out, err := run(t, "version", "-o", "json")
	require.NoError(t, err)

	var v VersionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "1.4.0", v.Version)
	assert.NotEmpty(t, v.GoVersion)
}

func TestVersion_Text(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vf "))
}

func TestRoot_InvalidOutputFormat(t *testing.T) {
	_, err := run(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestRoot_UnknownSubcommand(t *testing.T) {
	_, err := run(t, "frobnicate")
	assert.Error(t, err)
}

func TestRoot_MissingConfigFile(t *testing.T) {
	_, err := run(t, "version", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config initialization failed")
}

func TestGetCLIContext_Missing(t *testing.T) {
	_, err := GetCLIContext(newVersionCmd())
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"A", "LONG"}, [][]string{{"xyz", "1"}, {"q"}})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "A    LONG", lines[0])
	assert.Equal(t, "---  ----", lines[1])
	assert.Equal(t, "xyz  1", lines[2])
	assert.Equal(t, "q    ", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}
