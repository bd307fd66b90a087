// Package config provides configuration loading and structs for Omny.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted for the Gemini API key, in order.
const (
	EnvAPIKey    = "GOOGLE_API_KEY"
	EnvAltAPIKey = "GEMINI_API_KEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	PDF       PDFConfig       `yaml:"pdf"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// DataConfig locates the profile and chat history files.
type DataConfig struct {
	Dir         string `yaml:"dir"`
	ProfileFile string `yaml:"profile_file"`
	ChatFile    string `yaml:"chat_file"`
}

// ProfilePath returns the full path of the profile file.
func (d *DataConfig) ProfilePath() string {
	return filepath.Join(d.Dir, d.ProfileFile)
}

// ChatPath returns the full path of the chat history file.
func (d *DataConfig) ChatPath() string {
	return filepath.Join(d.Dir, d.ChatFile)
}

// LLMConfig holds Gemini settings. APIKey is never read from or written to YAML.
type LLMConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	ChatModel         string        `yaml:"chat_model"`
	VisionModel       string        `yaml:"vision_model"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	APIKey            string        `yaml:"-"`
}

// EmbeddingConfig selects and tunes the embedder.
type EmbeddingConfig struct {
	// Provider is "gemini", "onnx" or "hash".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// KnowledgeConfig holds the knowledge-base paths and chunking settings.
type KnowledgeConfig struct {
	Dir              string   `yaml:"dir"`
	DatabasePath     string   `yaml:"database_path"`
	VectorIndexPath  string   `yaml:"vector_index_path"`
	KeywordIndexPath string   `yaml:"keyword_index_path"`
	Extensions       []string `yaml:"extensions"`
	ChunkSize        int      `yaml:"chunk_size"`
	ChunkOverlap     int      `yaml:"chunk_overlap"`
	TopK             int      `yaml:"top_k"`
	BatchSize        int      `yaml:"batch_size"`
	Workers          int      `yaml:"workers"`
	Watch            bool     `yaml:"watch"`
	Recursive        *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to walk subdirectories; defaults to true when unset.
func (k *KnowledgeConfig) RecursiveOrDefault() bool {
	if k.Recursive != nil {
		return *k.Recursive
	}
	return true
}

// PDFConfig controls exported plan documents.
type PDFConfig struct {
	Title    string `yaml:"title"`
	LogoPath string `yaml:"logo_path"`
}

// Load reads and parses the config file at path, expands paths, applies defaults
// and loads secrets. A .env file next to the config is loaded when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	if err := finish(&cfg, configDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default configuration with paths relative to dir.
func Default(dir string) (*Config, error) {
	var cfg Config
	if err := finish(&cfg, dir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config, configDir string) error {
	ApplyDefaults(cfg)

	cfg.Data.Dir = expandPath(cfg.Data.Dir, configDir)
	cfg.Knowledge.Dir = expandPath(cfg.Knowledge.Dir, configDir)
	cfg.Knowledge.DatabasePath = expandPath(cfg.Knowledge.DatabasePath, configDir)
	cfg.Knowledge.VectorIndexPath = expandPath(cfg.Knowledge.VectorIndexPath, configDir)
	cfg.Knowledge.KeywordIndexPath = expandPath(cfg.Knowledge.KeywordIndexPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.PDF.LogoPath != "" {
		cfg.PDF.LogoPath = expandPath(cfg.PDF.LogoPath, configDir)
	}

	if err := loadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return err
	}
	cfg.LLM.APIKey = APIKeyFromEnv()
	return nil
}

// APIKeyFromEnv returns the first non-empty API key variable.
func APIKeyFromEnv() string {
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v
	}
	return os.Getenv(EnvAltAPIKey)
}

// loadDotEnv loads path into the environment without overriding variables that are already set.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. "~/" is the home directory; other
// relative paths are relative to configDir.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	if abs, err := filepath.Abs(filepath.Join(configDir, path)); err == nil {
		return abs
	}
	return filepath.Join(configDir, path)
}
