package mro

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// MartianStruct is the capability a hand-written or generated record type
// implements so the emitter can walk its fields in source declaration
// order. This stands in for compile-time reflection: a language-neutral
// design passes an explicit capability value per type rather than relying
// on runtime struct tag introspection of arbitrary types.
type MartianStruct interface {
	// MartianFields returns this type's declared fields in source order.
	MartianFields() []MroField
}

// keywords is the reserved word set no field name may collide with.
var keywords = map[string]bool{
	"in": true, "out": true, "stage": true, "volatile": true, "strict": true,
	"true": true, "split": true, "filetype": true, "src": true, "py": true,
	"comp": true, "retain": true, "mro": true, "using": true, "int": true,
	"float": true, "string": true, "map": true, "bool": true, "path": true,
}

// ValidateFields checks every field name against the keyword blacklist and
// the "__" prefix ban. It is the schema-generation-time validation named in
// the error taxonomy: failures here must surface before a stage can run,
// never at runtime.
func ValidateFields(fields []MroField) error {
	for _, f := range fields {
		if f.Name == "" {
			return errors.New("mro: field name must not be empty")
		}
		if keywords[f.Name] {
			return errors.Errorf("mro: field %q collides with reserved keyword", f.Name)
		}
		if strings.HasPrefix(f.Name, "__") {
			return errors.Errorf("mro: field %q must not begin with \"__\"", f.Name)
		}
	}
	return nil
}

// NewStageMro builds and validates a StageMro from a stage's declared
// input/output types and, for a WithSplit stage, its chunk input/output
// types. chunkIn and chunkOut are both nil for a MainOnly stage. stageName
// is converted to SHOUTY_SNAKE_CASE; stageKey and adapterName are used
// verbatim.
func NewStageMro(stageName, adapterName, stageKey string, stageIn, stageOut MartianStruct, chunkIn, chunkOut MartianStruct, using Using) (StageMro, error) {
	stageIO := InAndOut{Inputs: stageIn.MartianFields(), Outputs: stageOut.MartianFields()}
	if err := ValidateFields(stageIO.Inputs); err != nil {
		return StageMro{}, err
	}
	if err := ValidateFields(stageIO.Outputs); err != nil {
		return StageMro{}, err
	}

	mro := StageMro{
		StageName:   ToShoutySnakeCase(stageName),
		AdapterName: adapterName,
		StageKey:    stageKey,
		StageIO:     stageIO,
		Using:       using,
	}

	if chunkIn != nil || chunkOut != nil {
		chunkIO := InAndOut{}
		if chunkIn != nil {
			chunkIO.Inputs = chunkIn.MartianFields()
		}
		if chunkOut != nil {
			chunkIO.Outputs = chunkOut.MartianFields()
		}
		if err := ValidateFields(chunkIO.Inputs); err != nil {
			return StageMro{}, err
		}
		if err := ValidateFields(chunkIO.Outputs); err != nil {
			return StageMro{}, err
		}
		mro.ChunkIO = &chunkIO
	}

	return mro, nil
}

// ToShoutySnakeCase converts a Go-style type name (e.g. "SumSquares") to the
// Host's stage-name convention (e.g. "SUM_SQUARES"). Existing underscores
// and casing in the input are preserved as word boundaries.
func ToShoutySnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r == '_' {
			b.WriteRune('_')
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower)) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
