package settings

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("settings.json"))
	assert.Equal(t, FormatJSON, FormatFor("settings"))
	assert.Equal(t, FormatYAML, FormatFor("settings.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("settings.YML"))
}

func TestStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "settings.json"))

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestStore_LoadMergesOverDefaults(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    float64
	}{
		{name: "json value", file: "settings.json", content: `{"intervalMinutes": 12.5}`, want: 12.5},
		{name: "json missing key keeps default", file: "settings.json", content: `{"other": true}`, want: 5},
		{name: "json null keeps default", file: "settings.json", content: `{"intervalMinutes": null}`, want: 5},
		{name: "json zero disables", file: "settings.json", content: `{"intervalMinutes": 0}`, want: 0},
		{name: "empty file keeps default", file: "settings.json", content: "  \n", want: 5},
		{name: "yaml value", file: "settings.yaml", content: "intervalMinutes: 0.25\n", want: 0.25},
		{name: "yaml missing key keeps default", file: "settings.yml", content: "other: 1\n", want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s, err := NewStore(path).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.IntervalMinutes)
		})
	}
}

func TestStore_LoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intervalMinutes": "soon"}`), 0o644))

	s, err := NewStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse settings")
	assert.Equal(t, Default(), s)
}

func TestStore_SaveRoundTripAndBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".autopush", "settings.json")
	store := NewStore(path)

	require.NoError(t, store.Save(Settings{IntervalMinutes: 1}))
	_, err := os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err), "first save must not create a backup")

	require.NoError(t, store.Save(Settings{IntervalMinutes: 2.5}))

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.IntervalMinutes)

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Contains(t, string(bak), `"intervalMinutes": 1`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".autopush-tmp-", "temp file left behind")
	}
}

func TestStore_SaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store := NewStore(path)

	require.NoError(t, store.Save(Settings{IntervalMinutes: 30}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yamlv3.Unmarshal(content, &raw))
	assert.EqualValues(t, 30, raw["intervalMinutes"])
}

func TestStore_SaveKeepsArtifactsOutOfGit(t *testing.T) {
	vault := t.TempDir()
	path := filepath.Join(vault, ".autopush", "settings.json")
	store := NewStore(path)

	require.NoError(t, store.Save(Settings{IntervalMinutes: 1}))
	require.NoError(t, store.Save(Settings{IntervalMinutes: 2}))

	ignore, err := os.ReadFile(filepath.Join(vault, ".autopush", ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(ignore), "*.bak")
	assert.Contains(t, string(ignore), ".autopush-tmp-*")

	if _, err := exec.LookPath("git"); err != nil {
		return
	}
	require.NoError(t, exec.Command("git", "init", vault).Run())
	for _, name := range []string{"settings.json.bak", ".autopush-tmp-123"} {
		cmd := exec.Command("git", "check-ignore", "-q", filepath.Join(".autopush", name))
		cmd.Dir = vault
		assert.NoError(t, cmd.Run(), "%s must be ignored", name)
	}
	cmd := exec.Command("git", "check-ignore", "-q", filepath.Join(".autopush", "settings.json"))
	cmd.Dir = vault
	assert.Error(t, cmd.Run(), "settings.json itself is synced with the vault")
}

func TestStore_SaveLeavesExistingGitignore(t *testing.T) {
	dir := t.TempDir()
	custom := "# mine\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(custom), 0o644))

	require.NoError(t, NewStore(filepath.Join(dir, "settings.json")).Save(Default()))

	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(content))
}
