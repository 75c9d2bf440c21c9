package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/profileqa/internal/config"
)

const profileText = "Name: Jane Doe\nEmail: jane@x.com\n________________\nSkills: Go, Python\n________________\nProjects:\nProject: Widget\nDescription: A widget.\nGitHub URL: https://github.com/x/widget"

func writeConfig(t *testing.T, dir string, indexType string) *config.Config {
	t.Helper()
	profile := filepath.Join(dir, "profile.txt")
	require.NoError(t, os.WriteFile(profile, []byte(profileText), 0o644))
	raw := `{
		"profile": {"type": "local", "data": {"path": "` + profile + `"}},
		"ai": {"generators": [{"provider": "openai", "model": "gpt-4o-mini", "data": {"api_key": "k", "base_url": "http://127.0.0.1:1"}}]},
		"index": {"type": "` + indexType + `", "sqlite_path": "` + filepath.Join(dir, "index.db") + `"}
	}`
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildAppMemory(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), config.IndexTypeMemory)
	a, err := buildApp(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.Nil(t, a.db)
	require.Equal(t, "memory", a.retriever.StoreName())

	require.NoError(t, a.qa.Init(context.Background()))
	st := a.qa.Status()
	require.True(t, st.Ready)
	require.Equal(t, 4, st.ChunkCount)
}

func TestBuildAppSQLiteReusesIndex(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, config.IndexTypeSQLite)

	first, err := buildApp(cfg)
	require.NoError(t, err)
	require.NoError(t, first.qa.Init(context.Background()))
	require.False(t, first.qa.Status().Reused)
	first.Close()

	second, err := buildApp(cfg)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.qa.Init(context.Background()))
	require.True(t, second.qa.Status().Reused)
}

func TestChatTemplateService(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), config.IndexTypeMemory)
	a, err := buildApp(cfg)
	require.NoError(t, err)
	defer a.Close()
	chat, err := a.withTemplate(cfg.ChatTemplate)
	require.NoError(t, err)
	require.NotNil(t, chat)
	_, err = a.withTemplate("no slots")
	require.Error(t, err)
}

func TestBuildGeneratorErrors(t *testing.T) {
	cfg := &config.Config{}
	_, err := buildGenerator(cfg)
	require.Error(t, err)

	cfg.AI.Generators = []config.ProviderConfig{{Provider: "nope"}}
	_, err = buildGenerator(cfg)
	require.ErrorContains(t, err, "nope")
}

func TestProviderName(t *testing.T) {
	require.Equal(t, "primary", providerName(config.ProviderConfig{Name: "primary", Provider: "gemini"}))
	require.Equal(t, "gemini", providerName(config.ProviderConfig{Provider: "gemini"}))
}
