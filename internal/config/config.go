package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/paperpal/internal/sections"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName string `yaml:"app_name"`
	AppEnv  string `yaml:"app_env"`
	Port    string `yaml:"port"`

	// Paper store
	DBPath string `yaml:"db_path"`

	// HTTP
	FrontendOrigin string `yaml:"frontend_origin"`
	APIKey         string `yaml:"api_key"`

	// Worker pool
	WorkerCount  int           `yaml:"worker_count"`
	MaxQueueSize int           `yaml:"max_queue_size"`
	JobTTL       time.Duration `yaml:"job_ttl"`

	// Drop folder; empty disables it.
	WatchDir string `yaml:"watch_dir"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Extraction
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
	FoldUnicode          bool `yaml:"fold_unicode"`

	LogLevel string `yaml:"log_level"`

	// Segmentation thresholds
	TitleMaxWords      int  `yaml:"title_max_words"`
	AbstractWindow     int  `yaml:"abstract_window"`
	IntroductionWindow int  `yaml:"introduction_window"`
	ConclusionWindow   int  `yaml:"conclusion_window"`
	ReferencesWindow   int  `yaml:"references_window"`
	KeepPreamble       bool `yaml:"keep_preamble"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	p := sections.DefaultPolicy()
	return Config{
		AppName: "paperpal",
		AppEnv:  "dev",
		Port:    "8000",

		DBPath: "paperpal.db",

		FrontendOrigin: "http://localhost:8501",

		WorkerCount:  4,
		MaxQueueSize: 100,
		JobTTL:       1 * time.Hour,

		MaxUploadBytes: 52428800, // 50MB

		PDFFallbackPdftotext: true,
		FoldUnicode:          true,

		LogLevel: "info",

		TitleMaxWords:      p.MaxTitleWords,
		AbstractWindow:     p.AbstractWindow,
		IntroductionWindow: p.IntroductionWindow,
		ConclusionWindow:   p.ConclusionWindow,
		ReferencesWindow:   p.ReferencesWindow,
		KeepPreamble:       p.KeepPreamble,
	}
}

// Load reads configuration from the environment on top of the defaults.
func Load() Config {
	return applyEnv(Defaults())
}

// LoadFile reads a YAML file over the defaults, then applies the
// environment. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return applyEnv(cfg), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	cfg.AppName = envOr("APP_NAME", cfg.AppName)
	cfg.AppEnv = envOr("APP_ENV", cfg.AppEnv)
	cfg.Port = envOr("PORT", cfg.Port)

	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)

	cfg.FrontendOrigin = envOr("FRONTEND_ORIGIN", cfg.FrontendOrigin)
	cfg.APIKey = envOr("API_KEY", cfg.APIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.WatchDir = envOr("WATCH_DIR", cfg.WatchDir)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.FoldUnicode = envBool("FOLD_UNICODE", cfg.FoldUnicode)

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.TitleMaxWords = envInt("TITLE_MAX_WORDS", cfg.TitleMaxWords)
	cfg.AbstractWindow = envInt("ABSTRACT_WINDOW", cfg.AbstractWindow)
	cfg.IntroductionWindow = envInt("INTRODUCTION_WINDOW", cfg.IntroductionWindow)
	cfg.ConclusionWindow = envInt("CONCLUSION_WINDOW", cfg.ConclusionWindow)
	cfg.ReferencesWindow = envInt("REFERENCES_WINDOW", cfg.ReferencesWindow)
	cfg.KeepPreamble = envBool("KEEP_PREAMBLE", cfg.KeepPreamble)

	d := Defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = d.JobTTL
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.TitleMaxWords <= 0 {
		cfg.TitleMaxWords = d.TitleMaxWords
	}
	if cfg.AbstractWindow <= 0 {
		cfg.AbstractWindow = d.AbstractWindow
	}
	if cfg.IntroductionWindow <= 0 {
		cfg.IntroductionWindow = d.IntroductionWindow
	}
	if cfg.ConclusionWindow <= 0 {
		cfg.ConclusionWindow = d.ConclusionWindow
	}
	if cfg.ReferencesWindow <= 0 {
		cfg.ReferencesWindow = d.ReferencesWindow
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Policy returns the segmentation thresholds as a sections.Policy.
func (c Config) Policy() sections.Policy {
	return sections.Policy{
		MaxTitleWords:      c.TitleMaxWords,
		AbstractWindow:     c.AbstractWindow,
		IntroductionWindow: c.IntroductionWindow,
		ConclusionWindow:   c.ConclusionWindow,
		ReferencesWindow:   c.ReferencesWindow,
		KeepPreamble:       c.KeepPreamble,
	}
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
