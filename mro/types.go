// Package mro implements the typed schema model and text emitter for the
// Host's stage interface-definition language: primitive and blanket type
// enumerations, field reflection, keyword-collision validation, and
// column-aligned rendering of a stage's signature.
package mro

import "fmt"

// PrimaryKind enumerates the primitive type families a field can declare.
type PrimaryKind int

const (
	KindInt PrimaryKind = iota
	KindFloat
	KindStr
	KindBool
	KindMap
	KindPath
	KindFileType
)

// PrimaryType is a single primitive type, with an extension string carried
// alongside the FileType kind.
type PrimaryType struct {
	Kind PrimaryKind
	// Ext holds the declared file type's extension (possibly compound,
	// e.g. "fastq.lz4"); meaningful only when Kind == KindFileType.
	Ext string
}

var (
	Int   = PrimaryType{Kind: KindInt}
	Float = PrimaryType{Kind: KindFloat}
	Str   = PrimaryType{Kind: KindStr}
	Bool  = PrimaryType{Kind: KindBool}
	Map   = PrimaryType{Kind: KindMap}
	Path  = PrimaryType{Kind: KindPath}
)

// FileType returns the primitive type for a declared file type with the
// given (possibly compound) extension.
func FileType(ext string) PrimaryType {
	return PrimaryType{Kind: KindFileType, Ext: ext}
}

// String renders the MRO type literal for p.
func (p PrimaryType) String() string {
	switch p.Kind {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "string"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindPath:
		return "path"
	case KindFileType:
		return p.Ext
	default:
		return fmt.Sprintf("<unknown primary type %d>", p.Kind)
	}
}

// BlanketKind enumerates the three shapes a declared field may take: a bare
// primitive, an array of a primitive, or a typed map of a primitive.
type BlanketKind int

const (
	BlanketPrimary BlanketKind = iota
	BlanketArray
	BlanketTypedMap
)

// MapRenderer controls how BlanketTypedMap is rendered. Whether a typed map
// shows up in the IDL as "map<P>", "map[P]", or an untyped "map" depends on
// the Host version; this is deliberately pluggable. DefaultMapRenderer
// leaves it untyped, matching the fact that the blanket-type model already
// discards the key type -- no Host in the grounding corpus needed a
// parametrized rendering.
type MapRenderer func(elem PrimaryType) string

// DefaultMapRenderer renders every typed map as the untyped "map" literal.
func DefaultMapRenderer(PrimaryType) string { return Map.String() }

// BlanketType is a declared field's full type: a primitive, an array of a
// primitive, or a typed map of a primitive.
type BlanketType struct {
	Kind BlanketKind
	Elem PrimaryType
	// Renderer is consulted only when Kind == BlanketTypedMap; nil means
	// DefaultMapRenderer.
	Renderer MapRenderer
}

// Primary wraps p as a bare primitive field type.
func Primary(p PrimaryType) BlanketType { return BlanketType{Kind: BlanketPrimary, Elem: p} }

// Array wraps p as an array-of-primitive field type.
func Array(p PrimaryType) BlanketType { return BlanketType{Kind: BlanketArray, Elem: p} }

// TypedMap wraps p as a typed-map field type, rendered with renderer (or
// DefaultMapRenderer if nil).
func TypedMap(p PrimaryType, renderer MapRenderer) BlanketType {
	return BlanketType{Kind: BlanketTypedMap, Elem: p, Renderer: renderer}
}

// String renders the MRO type literal for b.
func (b BlanketType) String() string {
	switch b.Kind {
	case BlanketPrimary:
		return b.Elem.String()
	case BlanketArray:
		return b.Elem.String() + "[]"
	case BlanketTypedMap:
		if b.Renderer != nil {
			return b.Renderer(b.Elem)
		}
		return DefaultMapRenderer(b.Elem)
	default:
		return fmt.Sprintf("<unknown blanket type %d>", b.Kind)
	}
}

// MroField is one declared input or output field.
type MroField struct {
	Name string
	Type BlanketType
	// Retained marks an output the Host should not delete during volatile
	// data reaping, set by the "retain" field annotation.
	Retained bool
}

// InAndOut is the input and output field lists of a stage or a chunk.
type InAndOut struct {
	Inputs  []MroField
	Outputs []MroField
}

// typeWidth returns the maximum rendered type width across inputs and
// outputs.
func (io InAndOut) typeWidth() int {
	w := 0
	for _, f := range io.Inputs {
		if l := len(f.Type.String()); l > w {
			w = l
		}
	}
	for _, f := range io.Outputs {
		if l := len(f.Type.String()); l > w {
			w = l
		}
	}
	return w
}

// Using is a stage's `using (...)` resource/volatility attributes. All
// fields are optional; NeedUsing reports whether any are set.
type Using struct {
	MemGB    *int
	VMemGB   *int
	Threads  *int
	Volatile *string // only "strict" is a legal value
}

// NeedUsing reports whether rendering a `using (...)` block is required.
func (u Using) NeedUsing() bool {
	return u.MemGB != nil || u.VMemGB != nil || u.Threads != nil || u.Volatile != nil
}

// StageMro is everything the emitter needs to render one stage's stanza.
type StageMro struct {
	StageName   string // already SHOUTY_SNAKE_CASE
	AdapterName string
	StageKey    string
	StageIO     InAndOut
	ChunkIO     *InAndOut // nil for a MainOnly stage
	Using       Using
}
