package extractor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"genres/internal/descriptor"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
)

// File is everything extracted from one source file.
type File struct {
	Path        string                 `json:"path"`
	Language    string                 `json:"language"`
	Package     string                 `json:"package"`
	Imports     []string               `json:"imports"`
	ContentHash string                 `json:"content_hash"`
	Decls       []*descriptor.TypeDecl `json:"-"`
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	PackageQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, file *File) error
}

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "java":
		langExt = &JavaExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Supported reports whether path is a Java source or a types manifest.
func Supported(path string) bool {
	return strings.HasSuffix(path, ".java") || IsManifest(path)
}

// ExtractFromFile parses a single source file and extracts its type declarations.
func (e *Extractor) ExtractFromFile(filepath string) (*File, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.Extract(filepath, sourceCode)
}

// Extract parses sourceCode as if read from filepath.
func (e *Extractor) Extract(filepath string, sourceCode []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	defer tree.Close()

	file := &File{
		Path:        filepath,
		Language:    e.langName,
		ContentHash: ContentHash(sourceCode),
	}

	// 1. Package first, every declared id depends on it
	file.Package, err = e.detectPackageName(tree.RootNode(), sourceCode)
	if err != nil {
		return nil, err
	}

	// 2. Imports and top-level types
	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			if err := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, file); err != nil {
				return nil, fmt.Errorf("%s: %w", filepath, err)
			}
		}
	}

	return file, nil
}

func (e *Extractor) detectPackageName(root *sitter.Node, sourceCode []byte) (string, error) {
	pkgQuery, err := sitter.NewQuery([]byte(e.langExtractor.PackageQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return "", fmt.Errorf("failed to create package query: %w", err)
	}
	defer pkgQuery.Close()

	pqc := sitter.NewQueryCursor()
	defer pqc.Close()
	pqc.Exec(pkgQuery, root)
	if m, ok := pqc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(sourceCode), nil
	}
	return "", nil
}

// ContentHash fingerprints file contents for change detection.
func ContentHash(data []byte) string {
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}
