package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/dakota/internal/ports"
)

// withGlobal points the global config at a file inside a temp dir.
func withGlobal(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	orig := globalConfigPath
	globalConfigPath = func() string { return path }
	t.Cleanup(func() { globalConfigPath = orig })
	return path
}

func TestLoadConfig_NoFiles(t *testing.T) {
	withGlobal(t, "")
	cfg, err := LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	assert.Equal(t, EngineMerge, cfg.EngineName())
	assert.Empty(t, cfg.Sources)
}

func TestLoadConfig_ProjectOverridesGlobal(t *testing.T) {
	global := withGlobal(t, "engine: aho\nset: base\ndefines:\n  A: \"1\"\n  B: \"2\"\nincludeDirs: [/usr/share/cupl]\n")
	project := t.TempDir()
	projectFile := filepath.Join(project, "dakota.yml")
	require.NoError(t, os.WriteFile(projectFile, []byte("set: board\ndefines:\n  B: \"3\"\nmaxSource: 4096\nlogLevel: debug\n"), 0644))

	cfg, err := LoadConfig(project, "")
	require.NoError(t, err)

	assert.Equal(t, "aho", cfg.Engine, "global value kept when project does not set it")
	assert.Equal(t, "board", cfg.Set)
	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, cfg.Defines)
	assert.Equal(t, []string{"/usr/share/cupl"}, cfg.IncludeDirs)
	assert.Equal(t, 4096, cfg.MaxSource)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{global, projectFile}, cfg.Sources)
}

func TestLoadConfig_ProjectFilePrecedence(t *testing.T) {
	withGlobal(t, "")
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "dakota.yaml"), []byte("set: yaml\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".dakotarc"), []byte("set: rc\n"), 0644))

	cfg, err := LoadConfig(project, "")
	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Set)
}

func TestLoadConfig_Explicit(t *testing.T) {
	withGlobal(t, "")
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: merge\n"), 0644))

	cfg, err := LoadConfig(t.TempDir(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, cfg.Sources)

	_, err = LoadConfig(t.TempDir(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", "engine: [\n", "parse config"},
		{"bad engine", "engine: trie\n", "unknown engine"},
		{"negative limit", "maxSource: -1\n", "maxSource"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withGlobal(t, "")
			project := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(project, "dakota.yaml"), []byte(tt.content), 0644))

			_, err := LoadConfig(project, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_InvalidGlobalNotMaskedByProject(t *testing.T) {
	withGlobal(t, "maxSource: -1\n")
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "dakota.yaml"), []byte("maxSource: 4096\n"), 0644))

	_, err := LoadConfig(project, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxSource")
}

func TestDefinePatterns_Sorted(t *testing.T) {
	cfg := Config{Defines: map[string]string{"Z": "26", "A": "1"}}
	assert.Equal(t, []ports.Pattern{{Name: "A", Value: "1"}, {Name: "Z", Value: "26"}}, cfg.DefinePatterns())
}

func TestParseDefine(t *testing.T) {
	p, err := ParseDefine("WIDTH=8")
	require.NoError(t, err)
	assert.Equal(t, ports.Pattern{Name: "WIDTH", Value: "8"}, p)

	p, err = ParseDefine("FLAG")
	require.NoError(t, err)
	assert.Equal(t, ports.Pattern{Name: "FLAG"}, p)

	p, err = ParseDefine("EQ=a=b")
	require.NoError(t, err)
	assert.Equal(t, "a=b", p.Value)

	_, err = ParseDefine("=x")
	assert.Error(t, err)
}

// =============================================================================
// Pattern files
// =============================================================================

func TestDecodePatterns_Mapping(t *testing.T) {
	got, err := DecodePatterns(strings.NewReader("cat: DOG\na: \"1\"\nempty: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []ports.Pattern{
		{Name: "cat", Value: "DOG"},
		{Name: "a", Value: "1"},
		{Name: "empty", Value: ""},
	}, got, "file order is kept")
}

func TestDecodePatterns_Sequence(t *testing.T) {
	got, err := DecodePatterns(strings.NewReader("- name: ab\n  value: Y\n- name: a\n  value: X\n"))
	require.NoError(t, err)
	assert.Equal(t, []ports.Pattern{{Name: "ab", Value: "Y"}, {Name: "a", Value: "X"}}, got)
}

func TestDecodePatterns_Empty(t *testing.T) {
	got, err := DecodePatterns(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodePatterns_Errors(t *testing.T) {
	for _, doc := range []string{
		"just a string\n",
		"a: [1, 2]\n",
		"- value: nameless\n",
	} {
		_, err := DecodePatterns(strings.NewReader(doc))
		assert.Error(t, err, "document %q", doc)
	}
}

func TestEncodePatterns_RoundTrip(t *testing.T) {
	in := []ports.Pattern{{Name: "WIDTH", Value: "8"}, {Name: "ON", Value: "true"}, {Name: "E", Value: ""}}

	var buf bytes.Buffer
	require.NoError(t, EncodePatterns(&buf, in))

	out, err := DecodePatterns(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.yaml")
	require.NoError(t, os.WriteFile(path, []byte("CLK: \"1\"\n"), 0644))

	got, err := LoadPatterns(path)
	require.NoError(t, err)
	assert.Equal(t, []ports.Pattern{{Name: "CLK", Value: "1"}}, got)

	_, err = LoadPatterns(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
