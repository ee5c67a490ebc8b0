package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// UploadSettingsFileName is stored inside each download folder
	UploadSettingsFileName = "upload_settings.json"

	// DefaultTitleTemplate is applied when no settings file exists.
	// [FILENAME] is replaced with the video's base filename.
	DefaultTitleTemplate = "[FILENAME] - Amazing Douyin Video! 🔥"
)

// UploadSettings are the per-folder upload defaults applied to every
// candidate unless overridden per request.
type UploadSettings struct {
	TitleTemplate string `json:"title_template"`
	Description   string `json:"description"`
	Privacy       string `json:"privacy"`
	CategoryID    string `json:"category_id"`
	Language      string `json:"language"`
	Tags          string `json:"tags"`
	MadeForKids   bool   `json:"made_for_kids"`
	ShortsMode    bool   `json:"shorts_mode"`
	QualityPreset string `json:"quality_preset"`
}

// DefaultUploadSettings returns the defaults used before a folder has a
// settings file.
func DefaultUploadSettings() UploadSettings {
	return UploadSettings{
		TitleTemplate: DefaultTitleTemplate,
		Description:   "Downloaded from Douyin",
		Privacy:       "private",
		CategoryID:    "22",
		Language:      "en",
		QualityPreset: "youtube_optimized",
	}
}

// RenderTitle expands the [FILENAME] placeholder with the video's base name.
func (s UploadSettings) RenderTitle(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if s.TitleTemplate == "" {
		return base
	}
	return strings.ReplaceAll(s.TitleTemplate, "[FILENAME]", base)
}

// TagList splits the comma-separated tag string, trimming blanks.
func (s UploadSettings) TagList() []string {
	if s.Tags == "" {
		return nil
	}
	parts := strings.Split(s.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// LoadUploadSettings reads the folder's settings file, returning defaults
// when the file does not exist.
func LoadUploadSettings(dir string) (UploadSettings, error) {
	path := filepath.Join(dir, UploadSettingsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultUploadSettings(), nil
		}
		return UploadSettings{}, fmt.Errorf("failed to read upload settings: %w", err)
	}

	settings := DefaultUploadSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return UploadSettings{}, fmt.Errorf("failed to parse upload settings: %w", err)
	}
	return settings, nil
}

// SaveUploadSettings writes the folder's settings file atomically.
func SaveUploadSettings(dir string, settings UploadSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal upload settings: %w", err)
	}

	path := filepath.Join(dir, UploadSettingsFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write upload settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace upload settings: %w", err)
	}
	return nil
}

// PresetStore persists named upload presets in a single JSON file.
type PresetStore struct {
	mu   sync.Mutex
	path string
}

// NewPresetStore creates a preset store backed by the given file path.
func NewPresetStore(path string) *PresetStore {
	if path == "" {
		path = "upload_presets.json"
	}
	return &PresetStore{path: path}
}

// List returns all presets by name.
func (p *PresetStore) List() (map[string]UploadSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readUnlocked()
}

// Get returns one preset; found is false when the name is unknown.
func (p *PresetStore) Get(name string) (UploadSettings, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	presets, err := p.readUnlocked()
	if err != nil {
		return UploadSettings{}, false, err
	}
	settings, ok := presets[name]
	return settings, ok, nil
}

// Save creates or replaces a named preset.
func (p *PresetStore) Save(name string, settings UploadSettings) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("preset name must not be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	presets, err := p.readUnlocked()
	if err != nil {
		return err
	}
	presets[name] = settings
	return p.writeUnlocked(presets)
}

// Delete removes a named preset; deleting an unknown name is a no-op.
func (p *PresetStore) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	presets, err := p.readUnlocked()
	if err != nil {
		return err
	}
	if _, ok := presets[name]; !ok {
		return nil
	}
	delete(presets, name)
	return p.writeUnlocked(presets)
}

func (p *PresetStore) readUnlocked() (map[string]UploadSettings, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]UploadSettings{}, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	presets := map[string]UploadSettings{}
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	return presets, nil
}

func (p *PresetStore) writeUnlocked(presets map[string]UploadSettings) error {
	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace presets: %w", err)
	}
	return nil
}
