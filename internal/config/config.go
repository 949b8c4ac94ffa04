// Package config provides configuration loading for docreport.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the report pipeline and chat tool.
type Config struct {
	Dirs    DirsConfig    `yaml:"dirs"`
	Extract ExtractConfig `yaml:"extract"`
	LLM     LLMConfig     `yaml:"llm"`
	Layout  LayoutConfig  `yaml:"layout"`
	Chat    ChatConfig    `yaml:"chat"`
	Log     LogSettings   `yaml:"log"`
}

// DirsConfig holds the working directories of the batch pipeline.
type DirsConfig struct {
	Input     string `yaml:"input"`     // source PDFs to process
	Output    string `yaml:"output"`    // generated report PDFs
	Processed string `yaml:"processed"` // archived sources after a successful build
	Scratch   string `yaml:"scratch"`   // extracted image bytes, cleared per run
}

// ExtractConfig holds image harvesting thresholds.
type ExtractConfig struct {
	MinImageBytes int `yaml:"min_image_bytes"` // below this an image is decorative noise
	MaxImages     int `yaml:"max_images"`      // acceptance cap per document
}

// LLMConfig holds collaborator API settings.
type LLMConfig struct {
	APIKey         string        `yaml:"-"` // environment only, never from file
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
}

// LayoutConfig holds page geometry and grouping policy, in millimeters.
type LayoutConfig struct {
	PageMarginMM     float64 `yaml:"page_margin_mm"`
	MaxImageHeightMM float64 `yaml:"max_image_height_mm"`
	SmallTableRows   int     `yaml:"small_table_rows"`   // below this data-row count a table never splits
	BreakWindowUnits int     `yaml:"break_window_units"` // H1 inside this window does not force a page break
}

// ChatConfig holds RAG chat settings.
type ChatConfig struct {
	ChunkSize           int     `yaml:"chunk_size"`
	MinChunkChars       int     `yaml:"min_chunk_chars"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	CachePath           string  `yaml:"cache_path"` // sqlite embedding cache, empty disables
	HistoryLimit        int     `yaml:"history_limit"`
}

// LogSettings holds logging options.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dirs: DirsConfig{
			Input:     "data/input_pdf",
			Output:    "data/output_pdf",
			Processed: "data/processed_pdf",
			Scratch:   "data/scratch_images",
		},
		Extract: ExtractConfig{
			MinImageBytes: 5000,
			MaxImages:     50,
		},
		LLM: LLMConfig{
			Model:          "google/gemini-2.5-flash",
			EmbeddingModel: "google/gemini-embedding-001",
			BaseURL:        "https://openrouter.ai/api/v1",
			Timeout:        120 * time.Second,
			MaxRetries:     3,
		},
		Layout: LayoutConfig{
			PageMarginMM:     20,
			MaxImageHeightMM: 100,
			SmallTableRows:   30,
			BreakWindowUnits: 5,
		},
		Chat: ChatConfig{
			ChunkSize:           500,
			MinChunkChars:       50,
			SimilarityThreshold: 0.6,
			CachePath:           "data/embeddings.db",
			HistoryLimit:        20,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file if present,
// then environment overrides. A missing file at the default path is fine;
// an explicitly requested file that cannot be read is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // ignore error if .env doesn't exist

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = "docreport.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("DOCREPORT_INPUT_DIR"); v != "" {
		cfg.Dirs.Input = v
	}
	if v := os.Getenv("DOCREPORT_OUTPUT_DIR"); v != "" {
		cfg.Dirs.Output = v
	}
	if v := os.Getenv("DOCREPORT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DOCREPORT_MAX_IMAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Extract.MaxImages = n
		}
	}
}

// EnsureDirs creates the pipeline working directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Dirs.Input, c.Dirs.Output, c.Dirs.Processed, c.Dirs.Scratch} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
