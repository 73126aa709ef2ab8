package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/levelup/internal/config"
	"github.com/abhisek/levelup/internal/leaderboard"
	"github.com/abhisek/levelup/internal/scoring"
)

func setFlag(t *testing.T, name, value string) {
	t.Helper()
	flags := rootCmd.PersistentFlags()
	old := flags.Lookup(name).Value.String()
	require.NoError(t, flags.Set(name, value))
	t.Cleanup(func() { _ = flags.Set(name, old) })
}

func TestResolveConfigLocalFlag(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LEVELUP_STORE_URL", "https://project.example.co")
	t.Setenv("LEVELUP_STORE_KEY", "anon")
	setFlag(t, "env-file", filepath.Join(dir, "missing.env"))
	setFlag(t, "local", filepath.Join(dir, "levelup.db"))

	cfg, err := resolveConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "levelup.db"), cfg.LocalDB)
	assert.Equal(t, config.ModeLocal, cfg.Mode())
}

func TestResolveConfigRejectsBadURL(t *testing.T) {
	t.Setenv("LEVELUP_STORE_URL", "not a url")
	t.Setenv("LEVELUP_STORE_KEY", "anon")
	setFlag(t, "env-file", filepath.Join(t.TempDir(), "missing.env"))

	_, err := resolveConfig(rootCmd)
	assert.Error(t, err)
}

func TestRenderLeaderboard(t *testing.T) {
	out := renderLeaderboard([]leaderboard.Entry{
		{Rank: 1, Name: "Ada", Level: scoring.LevelAdvanced, Points: 90, Solved: 9},
		{Rank: 2, Name: leaderboard.AnonymousName, Level: scoring.LevelBeginner, Points: 10, Current: true},
	})
	for _, want := range []string{"Ada", "Advanced", "90", "Anonymous (you)"} {
		assert.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}
}

func TestLoadCatalogDefault(t *testing.T) {
	c, err := loadCatalog("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Problems)
}
