package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = "genres.yaml"

type Config struct {
	Project struct {
		Root string `yaml:"root"`
		// Sources are scanned below Root; empty means Root itself.
		Sources []string `yaml:"sources"`
		// Ignore adds directory names skipped while scanning.
		Ignore []string `yaml:"ignore"`
	} `yaml:"project"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Resolve struct {
		// Ignore lists types left out of every closure.
		Ignore []string `yaml:"ignore"`
	} `yaml:"resolve"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Storage.Path = filepath.Join(".genres", "genres.db")
	return &cfg
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("GENRES_DB"); db != "" {
		cfg.Storage.Path = db
	}
	if sources := os.Getenv("GENRES_SOURCES"); sources != "" {
		cfg.Project.Sources = splitList(sources)
	}
	if ignore := os.Getenv("GENRES_IGNORE"); ignore != "" {
		cfg.Resolve.Ignore = splitList(ignore)
	}

	return cfg, nil
}

// SourceDirs resolves the directories to scan.
func (c *Config) SourceDirs() []string {
	if len(c.Project.Sources) == 0 {
		return []string{c.Project.Root}
	}
	dirs := make([]string, len(c.Project.Sources))
	for i, s := range c.Project.Sources {
		if filepath.IsAbs(s) {
			dirs[i] = s
		} else {
			dirs[i] = filepath.Join(c.Project.Root, s)
		}
	}
	return dirs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
