package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort string `yaml:"server.port"`

	// Douyin feed configuration
	DouyinRequestTimeout    time.Duration `yaml:"-"`
	DouyinRequestTimeoutStr string        `yaml:"douyin.request_timeout"`

	// YouTube API configuration
	YouTubeAPIKey          string `yaml:"youtube.api_key"`
	YouTubeCredentialsFile string `yaml:"youtube.credentials_file"`
	YouTubeTokenFile       string `yaml:"youtube.token_file"`
	YouTubeCategoryID      string `yaml:"youtube.category_id"`
	YouTubeLanguage        string `yaml:"youtube.language"`

	// Cron schedule configuration
	CronSchedule string `yaml:"cron.schedule"`

	// Download configuration
	DownloadDir        string        `yaml:"download.dir"`
	DownloadTimeout    time.Duration `yaml:"-"`
	DownloadTimeoutStr string        `yaml:"download.timeout"`
	DownloadBufferSize int           `yaml:"download.buffer_size"`

	// Upload configuration
	UploadChunkSize  int           `yaml:"upload.chunk_size"`
	UploadTimeout    time.Duration `yaml:"-"`
	UploadTimeoutStr string        `yaml:"upload.timeout"`

	// Media tooling configuration
	FfmpegPath          string        `yaml:"media.ffmpeg_path"`
	FfprobePath         string        `yaml:"media.ffprobe_path"`
	OptimizeTimeout     time.Duration `yaml:"-"`
	OptimizeTimeoutStr  string        `yaml:"media.optimize_timeout"`
	DefaultQualityLevel string        `yaml:"media.default_preset"`

	// Database configuration
	DatabaseURL string `yaml:"database.url"`

	// Performance tuning
	HTTPClientTimeout    time.Duration `yaml:"-"`
	HTTPClientTimeoutStr string        `yaml:"performance.http_client_timeout"`
	MaxIdleConns         int           `yaml:"performance.max_idle_conns"`
	MaxConnsPerHost      int           `yaml:"performance.max_conns_per_host"`

	// Logging configuration
	LogDirectory  string `yaml:"logging.dir"`
	LogOutputFile string `yaml:"logging.output_file"`
	LogErrorFile  string `yaml:"logging.error_file"`
	LogLevel      string `yaml:"logging.level"`
}

// configFile represents the YAML structure
type configFile struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Douyin struct {
		RequestTimeout string `yaml:"request_timeout"`
	} `yaml:"douyin"`
	YouTube struct {
		APIKey          string `yaml:"api_key"`
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		CategoryID      string `yaml:"category_id"`
		Language        string `yaml:"language"`
	} `yaml:"youtube"`
	Cron struct {
		Schedule string `yaml:"schedule"`
	} `yaml:"cron"`
	Download struct {
		Dir        string `yaml:"dir"`
		Timeout    string `yaml:"timeout"`
		BufferSize int    `yaml:"buffer_size"`
	} `yaml:"download"`
	Upload struct {
		ChunkSize int    `yaml:"chunk_size"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"upload"`
	Media struct {
		FfmpegPath      string `yaml:"ffmpeg_path"`
		FfprobePath     string `yaml:"ffprobe_path"`
		OptimizeTimeout string `yaml:"optimize_timeout"`
		DefaultPreset   string `yaml:"default_preset"`
	} `yaml:"media"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Performance struct {
		HTTPClientTimeout string `yaml:"http_client_timeout"`
		MaxIdleConns      int    `yaml:"max_idle_conns"`
		MaxConnsPerHost   int    `yaml:"max_conns_per_host"`
	} `yaml:"performance"`
	Logging struct {
		Directory  string `yaml:"dir"`
		OutputFile string `yaml:"output_file"`
		ErrorFile  string `yaml:"error_file"`
		Level      string `yaml:"level"`
	} `yaml:"logging"`
}

// Manager handles configuration loading and saving
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	if configPath == "" {
		configPath = "config.yaml"
	}
	return &Manager{
		configPath: configPath,
	}
}

// Load reads configuration from YAML file
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		// If file doesn't exist, create default config
		if os.IsNotExist(err) {
			return m.createDefaultConfig()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(data, &cfgFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := &Config{
		ServerPort:              cfgFile.Server.Port,
		DouyinRequestTimeoutStr: cfgFile.Douyin.RequestTimeout,
		YouTubeAPIKey:           cfgFile.YouTube.APIKey,
		YouTubeCredentialsFile:  cfgFile.YouTube.CredentialsFile,
		YouTubeTokenFile:        cfgFile.YouTube.TokenFile,
		YouTubeCategoryID:       cfgFile.YouTube.CategoryID,
		YouTubeLanguage:         cfgFile.YouTube.Language,
		CronSchedule:            cfgFile.Cron.Schedule,
		DownloadDir:             cfgFile.Download.Dir,
		DownloadTimeoutStr:      cfgFile.Download.Timeout,
		DownloadBufferSize:      cfgFile.Download.BufferSize,
		UploadChunkSize:         cfgFile.Upload.ChunkSize,
		UploadTimeoutStr:        cfgFile.Upload.Timeout,
		FfmpegPath:              cfgFile.Media.FfmpegPath,
		FfprobePath:             cfgFile.Media.FfprobePath,
		OptimizeTimeoutStr:      cfgFile.Media.OptimizeTimeout,
		DefaultQualityLevel:     cfgFile.Media.DefaultPreset,
		DatabaseURL:             cfgFile.Database.URL,
		HTTPClientTimeoutStr:    cfgFile.Performance.HTTPClientTimeout,
		MaxIdleConns:            cfgFile.Performance.MaxIdleConns,
		MaxConnsPerHost:         cfgFile.Performance.MaxConnsPerHost,
		LogDirectory:            cfgFile.Logging.Directory,
		LogOutputFile:           cfgFile.Logging.OutputFile,
		LogErrorFile:            cfgFile.Logging.ErrorFile,
		LogLevel:                cfgFile.Logging.Level,
	}

	applyDefaults(cfg)

	m.config = cfg
	return cfg, nil
}

// applyDefaults fills zero values and parses duration strings.
func applyDefaults(cfg *Config) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.YouTubeCredentialsFile == "" {
		cfg.YouTubeCredentialsFile = "credentials.json"
	}
	if cfg.YouTubeTokenFile == "" {
		cfg.YouTubeTokenFile = "token.json"
	}
	if cfg.YouTubeCategoryID == "" {
		cfg.YouTubeCategoryID = "22"
	}
	if cfg.YouTubeLanguage == "" {
		cfg.YouTubeLanguage = "en"
	}
	if cfg.CronSchedule == "" {
		cfg.CronSchedule = "*/5 * * * *"
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "./downloads"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "sqlite3:./data.db"
	}
	if cfg.DefaultQualityLevel == "" {
		cfg.DefaultQualityLevel = "youtube_optimized"
	}
	if cfg.LogDirectory == "" {
		cfg.LogDirectory = "./logs"
	}
	if cfg.LogOutputFile == "" {
		cfg.LogOutputFile = "app.log"
	}
	if cfg.LogErrorFile == "" {
		cfg.LogErrorFile = "app.error.log"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.DouyinRequestTimeout = parseDurationOr(cfg.DouyinRequestTimeoutStr, 30*time.Second)
	cfg.DownloadTimeout = parseDurationOr(cfg.DownloadTimeoutStr, 60*time.Second)
	cfg.UploadTimeout = parseDurationOr(cfg.UploadTimeoutStr, 15*time.Minute)
	cfg.OptimizeTimeout = parseDurationOr(cfg.OptimizeTimeoutStr, 10*time.Minute)
	cfg.HTTPClientTimeout = parseDurationOr(cfg.HTTPClientTimeoutStr, 30*time.Second)

	if cfg.DownloadBufferSize == 0 {
		cfg.DownloadBufferSize = 1024 * 1024
	}
	if cfg.UploadChunkSize == 0 {
		cfg.UploadChunkSize = 8 * 1024 * 1024
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 20
	}
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Save writes configuration to YAML file
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveUnlocked(cfg)
}

// saveUnlocked persists config assuming caller already holds the write lock.
func (m *Manager) saveUnlocked(cfg *Config) error {
	var cfgFile configFile
	cfgFile.Server.Port = cfg.ServerPort
	cfgFile.Douyin.RequestTimeout = cfg.DouyinRequestTimeout.String()
	cfgFile.YouTube.APIKey = cfg.YouTubeAPIKey
	cfgFile.YouTube.CredentialsFile = cfg.YouTubeCredentialsFile
	cfgFile.YouTube.TokenFile = cfg.YouTubeTokenFile
	cfgFile.YouTube.CategoryID = cfg.YouTubeCategoryID
	cfgFile.YouTube.Language = cfg.YouTubeLanguage
	cfgFile.Cron.Schedule = cfg.CronSchedule
	cfgFile.Download.Dir = cfg.DownloadDir
	cfgFile.Download.Timeout = cfg.DownloadTimeout.String()
	cfgFile.Download.BufferSize = cfg.DownloadBufferSize
	cfgFile.Upload.ChunkSize = cfg.UploadChunkSize
	cfgFile.Upload.Timeout = cfg.UploadTimeout.String()
	cfgFile.Media.FfmpegPath = cfg.FfmpegPath
	cfgFile.Media.FfprobePath = cfg.FfprobePath
	cfgFile.Media.OptimizeTimeout = cfg.OptimizeTimeout.String()
	cfgFile.Media.DefaultPreset = cfg.DefaultQualityLevel
	cfgFile.Database.URL = cfg.DatabaseURL
	cfgFile.Performance.HTTPClientTimeout = cfg.HTTPClientTimeout.String()
	cfgFile.Performance.MaxIdleConns = cfg.MaxIdleConns
	cfgFile.Performance.MaxConnsPerHost = cfg.MaxConnsPerHost
	cfgFile.Logging.Directory = cfg.LogDirectory
	cfgFile.Logging.OutputFile = cfg.LogOutputFile
	cfgFile.Logging.ErrorFile = cfg.LogErrorFile
	cfgFile.Logging.Level = cfg.LogLevel

	data, err := yaml.Marshal(&cfgFile)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.config = cfg
	return nil
}

// Get returns the current configuration (thread-safe)
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update updates specific configuration fields and saves to file
func (m *Manager) Update(updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded, call Load() first")
	}

	for key, value := range updates {
		switch key {
		case "server.port":
			m.config.ServerPort = value.(string)
		case "douyin.request_timeout":
			if str, ok := value.(string); ok {
				m.config.DouyinRequestTimeoutStr = str
				if d, err := time.ParseDuration(str); err == nil {
					m.config.DouyinRequestTimeout = d
				}
			}
		case "youtube.api_key":
			m.config.YouTubeAPIKey = value.(string)
		case "youtube.credentials_file":
			m.config.YouTubeCredentialsFile = value.(string)
		case "youtube.token_file":
			m.config.YouTubeTokenFile = value.(string)
		case "youtube.category_id":
			m.config.YouTubeCategoryID = value.(string)
		case "youtube.language":
			m.config.YouTubeLanguage = value.(string)
		case "cron.schedule":
			m.config.CronSchedule = value.(string)
		case "download.dir":
			m.config.DownloadDir = value.(string)
		case "download.timeout":
			if str, ok := value.(string); ok {
				m.config.DownloadTimeoutStr = str
				if d, err := time.ParseDuration(str); err == nil {
					m.config.DownloadTimeout = d
				}
			}
		case "download.buffer_size":
			m.config.DownloadBufferSize = value.(int)
		case "upload.chunk_size":
			m.config.UploadChunkSize = value.(int)
		case "upload.timeout":
			if str, ok := value.(string); ok {
				m.config.UploadTimeoutStr = str
				if d, err := time.ParseDuration(str); err == nil {
					m.config.UploadTimeout = d
				}
			}
		case "media.ffmpeg_path":
			m.config.FfmpegPath = value.(string)
		case "media.ffprobe_path":
			m.config.FfprobePath = value.(string)
		case "media.optimize_timeout":
			if str, ok := value.(string); ok {
				m.config.OptimizeTimeoutStr = str
				if d, err := time.ParseDuration(str); err == nil {
					m.config.OptimizeTimeout = d
				}
			}
		case "media.default_preset":
			m.config.DefaultQualityLevel = value.(string)
		case "performance.http_client_timeout":
			if str, ok := value.(string); ok {
				m.config.HTTPClientTimeoutStr = str
				if d, err := time.ParseDuration(str); err == nil {
					m.config.HTTPClientTimeout = d
				}
			}
		case "performance.max_idle_conns":
			m.config.MaxIdleConns = value.(int)
		case "performance.max_conns_per_host":
			m.config.MaxConnsPerHost = value.(int)
		case "logging.dir":
			m.config.LogDirectory = value.(string)
		case "logging.output_file":
			m.config.LogOutputFile = value.(string)
		case "logging.error_file":
			m.config.LogErrorFile = value.(string)
		case "logging.level":
			m.config.LogLevel = value.(string)
		}
	}

	return m.saveUnlocked(m.config)
}

// Reload reloads configuration from file
func (m *Manager) Reload() (*Config, error) {
	return m.Load()
}

// createDefaultConfig creates a default configuration file
func (m *Manager) createDefaultConfig() (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if err := m.saveUnlocked(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Global config manager instance
var globalManager *Manager

// Load loads configuration from YAML file (backward compatibility)
func Load() (*Config, error) {
	return GetManager().Load()
}

// GetManager returns the global config manager
func GetManager() *Manager {
	if globalManager == nil {
		configPath := "config.yaml"
		// Check if config/config.yaml exists, if so use it as default
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
		globalManager = NewManager(configPath)
	}
	return globalManager
}
