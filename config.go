package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type UnsplashConfig struct {
	AccessKey string `json:"access" env:"UNSPLASH_ACCESS_KEY"`
	BaseUrl   string `json:"baseUrl" env:"UNSPLASH_BASE_URL"`
}

type PexelsConfig struct {
	Key     string `json:"key" env:"PEXELS_KEY"`
	BaseUrl string `json:"baseUrl" env:"PEXELS_BASE_URL"`
}

type PixabayConfig struct {
	Key     string `json:"key" env:"PIXABAY_KEY"`
	BaseUrl string `json:"baseUrl" env:"PIXABAY_BASE_URL"`
}

type HistoryConfig struct {
	// sqlite, bolt or memory
	Backend string `json:"backend" env:"PHOTOSEARCH_HISTORY_BACKEND"`
	Path    string `json:"path" env:"PHOTOSEARCH_HISTORY_PATH"`
	Limit   int    `json:"limit" env:"PHOTOSEARCH_HISTORY_LIMIT"`
}

type DebugConfig struct {
	PrettyJson bool   `json:"prettyJson" env:"PHOTOSEARCH_PRETTY_JSON"`
	LogLevel   string `json:"logLevel" env:"PHOTOSEARCH_LOG_LEVEL"`
	ConsoleLog bool   `json:"consoleLog" env:"PHOTOSEARCH_CONSOLE_LOG"`
}

type Config struct {
	Provider    string         `json:"provider" env:"PHOTOSEARCH_PROVIDER"`
	Listen      string         `json:"listen" env:"PHOTOSEARCH_LISTEN"`
	Database    string         `json:"database" env:"PHOTOSEARCH_DATABASE"`
	RequireAuth bool           `json:"requireAuth" env:"PHOTOSEARCH_REQUIRE_AUTH"`
	ImageHosts  []string       `json:"imageHosts" env:"PHOTOSEARCH_IMAGE_HOSTS" envSeparator:","`
	Unsplash    UnsplashConfig `json:"unsplash.com"`
	Pexels      PexelsConfig   `json:"pexels.com"`
	Pixabay     PixabayConfig  `json:"pixabay.com"`
	History     HistoryConfig  `json:"history"`
	Debug       DebugConfig    `json:"debug"`
}

// defaultImageHosts are the CDNs the providers serve images from. Hosts seen
// in search results are allowed on top of these.
var defaultImageHosts = []string{
	"images.unsplash.com",
	"images.pexels.com",
	"pixabay.com",
}

func defaultConfig() Config {
	return Config{
		Provider:   "unsplash",
		Listen:     ":8081",
		Database:   dbFile,
		ImageHosts: append([]string(nil), defaultImageHosts...),
		History: HistoryConfig{
			Backend: "sqlite",
			Limit:   DefaultHistoryLimit,
		},
		Debug: DebugConfig{LogLevel: "info"},
	}
}

// loadConfig reads the JSON config file, if there is one, and then applies
// .env and environment overrides on top.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := decodeConfig(f, &cfg); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func decodeConfig(f io.ReadSeeker, cfg *Config) error {
	decoder := json.NewDecoder(f)
	switch err := decoder.Decode(cfg).(type) {
	case nil:
		return nil
	case *json.SyntaxError:
		f.Seek(0, io.SeekStart)
		pos := findPos(bufio.NewReader(f), int(err.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d): %w", pos.line, pos.pos, err)
	default:
		return fmt.Errorf("unable to decode configuration file: %w", err)
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
