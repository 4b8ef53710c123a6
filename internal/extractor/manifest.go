package extractor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"genres/internal/descriptor"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const manifestSchemaURL = "https://genres.local/manifest.schema.json"

//go:embed manifest.schema.json
var manifestSchemaJSON string

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

// Manifest declares types without sources, for libraries only available as binaries.
// Type references use Java syntax. Interfaces list the interfaces they extend under
// implements.
type Manifest struct {
	Package string         `yaml:"package"`
	Imports []string       `yaml:"imports"`
	Types   []ManifestType `yaml:"types"`
}

type ManifestType struct {
	Name       string           `yaml:"name"`
	Interface  bool             `yaml:"interface"`
	Static     bool             `yaml:"static"`
	Outer      string           `yaml:"outer"`
	Vars       []string         `yaml:"vars"`
	Extends    string           `yaml:"extends"`
	Implements []string         `yaml:"implements"`
	Fields     []ManifestField  `yaml:"fields"`
	Methods    []ManifestMethod `yaml:"methods"`
}

type ManifestField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type ManifestMethod struct {
	Name    string   `yaml:"name"`
	Vars    []string `yaml:"vars"`
	Params  []string `yaml:"params"`
	Returns string   `yaml:"returns"`
}

// IsManifest reports whether path names a types manifest.
func IsManifest(path string) bool {
	return strings.HasSuffix(path, ".types.yaml") || strings.HasSuffix(path, ".types.yml")
}

// LoadManifest reads, validates and converts the manifest at path.
func LoadManifest(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(path, data)
}

// ParseManifest converts manifest data as if read from path.
func ParseManifest(path string, data []byte) (*File, error) {
	if err := validateManifest(data); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	file := &File{
		Path:        path,
		Language:    "manifest",
		Package:     m.Package,
		Imports:     m.Imports,
		ContentHash: ContentHash(data),
	}
	scopes := make(map[string]*scope)
	decls := make(map[string]*descriptor.TypeDecl)
	for i, mt := range m.Types {
		decl, sc, err := manifestDecl(mt, m.Package, decls, scopes)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: types[%d] %s: %w", path, i, mt.Name, err)
		}
		decl.Source = descriptor.Source{File: path}
		decls[mt.Name] = decl
		scopes[mt.Name] = sc
		file.Decls = append(file.Decls, decl)
	}
	return file, nil
}

func manifestDecl(mt ManifestType, pkg string, decls map[string]*descriptor.TypeDecl, scopes map[string]*scope) (*descriptor.TypeDecl, *scope, error) {
	decl := &descriptor.TypeDecl{Interface: mt.Interface, Static: mt.Static}

	var sc *scope
	switch {
	case mt.Outer != "":
		outer, ok := decls[mt.Outer]
		if !ok {
			return nil, nil, fmt.Errorf("outer type %s must be declared before its members", mt.Outer)
		}
		decl.ID = outer.ID + descriptor.TypeID("."+mt.Name)
		decl.Outer = outer.ID
		if mt.Interface || outer.Interface {
			decl.Static = true
		}
		if !decl.Static {
			sc = scopes[mt.Outer]
		}
	case pkg != "":
		decl.ID = descriptor.TypeID(pkg + "." + mt.Name)
	default:
		decl.ID = descriptor.TypeID(mt.Name)
	}

	var err error
	decl.Vars, sc, err = parseTypeParams(strings.Join(mt.Vars, ", "), sc)
	if err != nil {
		return nil, nil, err
	}
	if mt.Extends != "" {
		if decl.Super, err = parseType(mt.Extends, sc); err != nil {
			return nil, nil, err
		}
	}
	for _, src := range mt.Implements {
		t, err := parseType(src, sc)
		if err != nil {
			return nil, nil, err
		}
		decl.Interfaces = append(decl.Interfaces, t)
	}

	for _, f := range mt.Fields {
		t, err := parseType(f.Type, sc)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		decl.Fields = append(decl.Fields, descriptor.FieldDecl{Name: f.Name, Type: t, Owner: decl.ID})
	}
	for _, mm := range mt.Methods {
		m, err := manifestMethod(mm, sc, decl.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("method %s: %w", mm.Name, err)
		}
		decl.Methods = append(decl.Methods, m)
	}
	return decl, sc, nil
}

func manifestMethod(mm ManifestMethod, sc *scope, owner descriptor.TypeID) (descriptor.MethodDecl, error) {
	m := descriptor.MethodDecl{Name: mm.Name, Owner: owner}
	var err error
	if m.Vars, sc, err = parseTypeParams(strings.Join(mm.Vars, ", "), sc); err != nil {
		return m, err
	}
	for _, src := range mm.Params {
		t, err := parseType(src, sc)
		if err != nil {
			return m, err
		}
		m.Params = append(m.Params, t)
	}
	if mm.Returns != "" && mm.Returns != "void" {
		if m.Return, err = parseType(mm.Returns, sc); err != nil {
			return m, err
		}
	}
	return m, nil
}

func validateManifest(data []byte) error {
	schema, err := loadManifestSchema()
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	// normalize YAML scalars to their JSON forms
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest for schema validation: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("failed to normalize manifest for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("manifest schema validation failed: %w", err)
	}
	return nil
}

func loadManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaURL, strings.NewReader(manifestSchemaJSON)); err != nil {
			manifestSchemaErr = err
			return
		}
		manifestSchema, manifestSchemaErr = compiler.Compile(manifestSchemaURL)
	})
	return manifestSchema, manifestSchemaErr
}
