package graph

import "genres/internal/descriptor"

type RelationKind string

const (
	RelationExtends    RelationKind = "extends"
	RelationImplements RelationKind = "implements"
	RelationNestedIn   RelationKind = "nested_in"
	RelationUsesType   RelationKind = "uses_type"
)

type UnresolvedReason string

const (
	ReasonNoCandidate   UnresolvedReason = "no_candidate"
	ReasonAmbiguous     UnresolvedReason = "ambiguous"
	ReasonSourceMissing UnresolvedReason = "source_missing"
)

// Edge is a resolved relation between two declared types.
type Edge struct {
	From descriptor.TypeID
	To   descriptor.TypeID
	Kind RelationKind
}

// UnresolvedRelation is a reference no declaration could be found for. The reference
// is kept as written so the hierarchy builder reports it as missing.
type UnresolvedRelation struct {
	From       descriptor.TypeID
	Target     descriptor.TypeID
	Kind       RelationKind
	Reason     UnresolvedReason
	Candidates []descriptor.TypeID
	Evidence   descriptor.Source
}

// Unit is one source of declarations: a parsed file or a manifest.
type Unit struct {
	Path        string
	Package     string
	Imports     []string
	ContentHash string
	Decls       []*descriptor.TypeDecl
}
