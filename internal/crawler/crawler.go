package crawler

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"genres/internal/extractor"
)

// DefaultIgnored are directory names never scanned.
var DefaultIgnored = []string{".git", ".idea", "target", "build", "out", "node_modules"}

// Crawler scans a directory for Java sources and types manifests.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string

	// OnError receives files that could not be read or parsed. The scan continues.
	OnError func(path string, err error)
}

// NewCrawler creates a new crawler instance. ignored adds directory names to DefaultIgnored.
func NewCrawler(ext *extractor.Extractor, ignored ...string) *Crawler {
	return &Crawler{
		extractor: ext,
		ignored:   append(append([]string(nil), DefaultIgnored...), ignored...),
	}
}

// LoadFile extracts one supported file.
func (c *Crawler) LoadFile(path string) (*extractor.File, error) {
	if extractor.IsManifest(path) {
		return extractor.LoadManifest(path)
	}
	if !extractor.Supported(path) {
		return nil, fmt.Errorf("unsupported file: %s", path)
	}
	return c.extractor.ExtractFromFile(path)
}

// ScanProject walks the root directory and processes all relevant files.
// It uses a callback to stream files, preventing large memory buildup.
func (c *Crawler) ScanProject(root string, onFile func(*extractor.File)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && c.isIgnored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !extractor.Supported(d.Name()) {
			return nil
		}

		file, err := c.LoadFile(path)
		if err != nil {
			// Report and continue instead of failing the whole scan
			if c.OnError != nil {
				c.OnError(path, err)
			}
			return nil
		}

		onFile(file)
		return nil
	})
}

func (c *Crawler) isIgnored(name string) bool {
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}
