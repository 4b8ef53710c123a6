package graph

import "genres/internal/extractor"

// FromFile converts extractor output into a graph Unit.
func FromFile(file *extractor.File) *Unit {
	if file == nil {
		return nil
	}
	return &Unit{
		Path:        file.Path,
		Package:     file.Package,
		Imports:     append([]string(nil), file.Imports...),
		ContentHash: file.ContentHash,
		Decls:       file.Decls,
	}
}

// AddFile adds the declarations of an extracted file, replacing its previous version.
func (g *Graph) AddFile(file *extractor.File) {
	g.AddUnit(FromFile(file))
}
