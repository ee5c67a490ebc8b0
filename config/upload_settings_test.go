package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTitle(t *testing.T) {
	s := UploadSettings{TitleTemplate: "[FILENAME] - daily pick"}
	assert.Equal(t, "video_001 - daily pick", s.RenderTitle("/downloads/video_001.mp4"))

	// an empty template falls back to the bare file name
	assert.Equal(t, "video_002", UploadSettings{}.RenderTitle("video_002.mp4"))

	// templates without the placeholder pass through unchanged
	fixed := UploadSettings{TitleTemplate: "always the same"}
	assert.Equal(t, "always the same", fixed.RenderTitle("whatever.mp4"))
}

func TestTagList(t *testing.T) {
	s := UploadSettings{Tags: " douyin , shorts,, viral ,"}
	assert.Equal(t, []string{"douyin", "shorts", "viral"}, s.TagList())

	assert.Nil(t, UploadSettings{}.TagList())
}

func TestLoadUploadSettingsDefaultsWhenMissing(t *testing.T) {
	settings, err := LoadUploadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultUploadSettings(), settings)
	assert.Equal(t, "private", settings.Privacy)
	assert.Equal(t, "22", settings.CategoryID)
}

func TestUploadSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := DefaultUploadSettings()
	in.TitleTemplate = "[FILENAME]"
	in.Privacy = "unlisted"
	in.ShortsMode = true
	require.NoError(t, SaveUploadSettings(dir, in))

	out, err := LoadUploadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// the temp file must not linger after the atomic rename
	_, err = os.Stat(filepath.Join(dir, UploadSettingsFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadUploadSettingsPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, UploadSettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"privacy":"public"}`), 0644))

	settings, err := LoadUploadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "public", settings.Privacy)
	assert.Equal(t, DefaultTitleTemplate, settings.TitleTemplate)
	assert.Equal(t, "youtube_optimized", settings.QualityPreset)
}

func TestLoadUploadSettingsRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, UploadSettingsFileName), []byte("{not json"), 0644))

	_, err := LoadUploadSettings(dir)
	assert.Error(t, err)
}

func TestPresetStore(t *testing.T) {
	store := NewPresetStore(filepath.Join(t.TempDir(), "presets.json"))

	// empty store answers with an empty map, not an error
	presets, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, presets)

	settings := DefaultUploadSettings()
	settings.Privacy = "public"
	require.NoError(t, store.Save("publish", settings))

	got, ok, err := store.Get("publish")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, settings, got)

	_, ok, err = store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// replace keeps a single entry per name
	settings.Privacy = "unlisted"
	require.NoError(t, store.Save("publish", settings))
	presets, err = store.List()
	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "unlisted", presets["publish"].Privacy)

	require.NoError(t, store.Delete("publish"))
	require.NoError(t, store.Delete("publish"))
	presets, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestPresetStoreRejectsBlankName(t *testing.T) {
	store := NewPresetStore(filepath.Join(t.TempDir(), "presets.json"))
	assert.Error(t, store.Save("   ", DefaultUploadSettings()))
}
