package descriptor

import (
	"encoding/json"
	"fmt"
)

// typeRecord is the tagged JSON form of a Type.
type typeRecord struct {
	Kind  string        `json:"kind"`
	ID    TypeID        `json:"id,omitempty"`
	Name  string        `json:"name,omitempty"`
	Args  []*typeRecord `json:"args,omitempty"`
	Elem  *typeRecord   `json:"elem,omitempty"`
	Upper []*typeRecord `json:"upper,omitempty"`
	Lower []*typeRecord `json:"lower,omitempty"`
}

const (
	recConcrete      = "concrete"
	recParameterized = "param"
	recVariable      = "var"
	recArray         = "array"
	recWildcard      = "wildcard"
)

func encodeType(t Type) *typeRecord {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case Concrete:
		return &typeRecord{Kind: recConcrete, ID: typ.ID}
	case Parameterized:
		return &typeRecord{Kind: recParameterized, ID: typ.Base, Args: encodeTypes(typ.Args)}
	case Variable:
		return &typeRecord{Kind: recVariable, Name: typ.Name}
	case Array:
		return &typeRecord{Kind: recArray, Elem: encodeType(typ.Elem)}
	case Wildcard:
		return &typeRecord{Kind: recWildcard, Upper: encodeTypes(typ.Upper), Lower: encodeTypes(typ.Lower)}
	default:
		panic(fmt.Sprintf("descriptor: unexpected type %T", t))
	}
}

func encodeTypes(ts []Type) []*typeRecord {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*typeRecord, len(ts))
	for i, t := range ts {
		out[i] = encodeType(t)
	}
	return out
}

func decodeType(r *typeRecord) (Type, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case recConcrete:
		return Concrete{ID: r.ID}, nil
	case recParameterized:
		args, err := decodeTypes(r.Args)
		if err != nil {
			return nil, err
		}
		return Parameterized{Base: r.ID, Args: args}, nil
	case recVariable:
		return Variable{Name: r.Name}, nil
	case recArray:
		elem, err := decodeType(r.Elem)
		if err != nil {
			return nil, err
		}
		if elem == nil {
			return nil, fmt.Errorf("array without element")
		}
		return Array{Elem: elem}, nil
	case recWildcard:
		upper, err := decodeTypes(r.Upper)
		if err != nil {
			return nil, err
		}
		lower, err := decodeTypes(r.Lower)
		if err != nil {
			return nil, err
		}
		return Wildcard{Upper: upper, Lower: lower}, nil
	default:
		return nil, fmt.Errorf("unknown descriptor kind %q", r.Kind)
	}
}

func decodeTypes(rs []*typeRecord) ([]Type, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	out := make([]Type, len(rs))
	for i, r := range rs {
		t, err := decodeType(r)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("null descriptor at position %d", i)
		}
		out[i] = t
	}
	return out, nil
}

// MarshalType encodes a descriptor as tagged JSON.
func MarshalType(t Type) ([]byte, error) {
	return json.Marshal(encodeType(t))
}

// UnmarshalType decodes a descriptor produced by MarshalType.
func UnmarshalType(data []byte) (Type, error) {
	var r typeRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return decodeType(&r)
}

type varRecord struct {
	Name   string        `json:"name"`
	Bounds []*typeRecord `json:"bounds,omitempty"`
}

type fieldRecord struct {
	Name string      `json:"name"`
	Type *typeRecord `json:"type"`
}

type methodRecord struct {
	Name   string        `json:"name"`
	Vars   []varRecord   `json:"vars,omitempty"`
	Params []*typeRecord `json:"params,omitempty"`
	Return *typeRecord   `json:"return,omitempty"`
}

type declRecord struct {
	ID         TypeID         `json:"id"`
	Vars       []varRecord    `json:"vars,omitempty"`
	Super      *typeRecord    `json:"super,omitempty"`
	Interfaces []*typeRecord  `json:"interfaces,omitempty"`
	Outer      TypeID         `json:"outer,omitempty"`
	Static     bool           `json:"static,omitempty"`
	Interface  bool           `json:"interface,omitempty"`
	Fields     []fieldRecord  `json:"fields,omitempty"`
	Methods    []methodRecord `json:"methods,omitempty"`
	Source     Source         `json:"source"`
}

func encodeVars(vars []TypeVar) []varRecord {
	out := make([]varRecord, len(vars))
	for i, v := range vars {
		out[i] = varRecord{Name: v.Name, Bounds: encodeTypes(v.Bounds)}
	}
	return out
}

func decodeVars(rs []varRecord) ([]TypeVar, error) {
	if len(rs) == 0 {
		return nil, nil
	}
	out := make([]TypeVar, len(rs))
	for i, r := range rs {
		bounds, err := decodeTypes(r.Bounds)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", r.Name, err)
		}
		out[i] = TypeVar{Name: r.Name, Bounds: bounds}
	}
	return out, nil
}

// MarshalDecl encodes a declaration, including its members, as JSON.
func MarshalDecl(d *TypeDecl) ([]byte, error) {
	rec := declRecord{
		ID:         d.ID,
		Vars:       encodeVars(d.Vars),
		Super:      encodeType(d.Super),
		Interfaces: encodeTypes(d.Interfaces),
		Outer:      d.Outer,
		Static:     d.Static,
		Interface:  d.Interface,
		Source:     d.Source,
	}
	for _, f := range d.Fields {
		rec.Fields = append(rec.Fields, fieldRecord{Name: f.Name, Type: encodeType(f.Type)})
	}
	for _, m := range d.Methods {
		rec.Methods = append(rec.Methods, methodRecord{
			Name:   m.Name,
			Vars:   encodeVars(m.Vars),
			Params: encodeTypes(m.Params),
			Return: encodeType(m.Return),
		})
	}
	return json.Marshal(rec)
}

// UnmarshalDecl decodes a declaration produced by MarshalDecl. Member owners are restored.
func UnmarshalDecl(data []byte) (*TypeDecl, error) {
	var rec declRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	d := &TypeDecl{
		ID:        rec.ID,
		Outer:     rec.Outer,
		Static:    rec.Static,
		Interface: rec.Interface,
		Source:    rec.Source,
	}
	var err error
	if d.Vars, err = decodeVars(rec.Vars); err != nil {
		return nil, fmt.Errorf("decl %s: %w", rec.ID, err)
	}
	if d.Super, err = decodeType(rec.Super); err != nil {
		return nil, fmt.Errorf("decl %s: %w", rec.ID, err)
	}
	if d.Interfaces, err = decodeTypes(rec.Interfaces); err != nil {
		return nil, fmt.Errorf("decl %s: %w", rec.ID, err)
	}
	for _, f := range rec.Fields {
		ft, err := decodeType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("decl %s field %s: %w", rec.ID, f.Name, err)
		}
		d.Fields = append(d.Fields, FieldDecl{Name: f.Name, Type: ft, Owner: d.ID})
	}
	for _, m := range rec.Methods {
		md := MethodDecl{Name: m.Name, Owner: d.ID}
		if md.Vars, err = decodeVars(m.Vars); err != nil {
			return nil, fmt.Errorf("decl %s method %s: %w", rec.ID, m.Name, err)
		}
		if md.Params, err = decodeTypes(m.Params); err != nil {
			return nil, fmt.Errorf("decl %s method %s: %w", rec.ID, m.Name, err)
		}
		if md.Return, err = decodeType(m.Return); err != nil {
			return nil, fmt.Errorf("decl %s method %s: %w", rec.ID, m.Name, err)
		}
		d.Methods = append(d.Methods, md)
	}
	return d, nil
}
