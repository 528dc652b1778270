// Package filetype defines the contract Rover.MakePath uses to decide
// whether a requested output path needs a canonical extension appended, and
// what MRO type literal the extension corresponds to.
package filetype

import "strings"

// MartianFileType is implemented by declared file types (the adapter's
// generic container formats -- JSON/CSV/lz4/gz wrappers and the like --
// live outside this module's scope; only this contract is specified here).
// Extension returns the canonical, possibly compound, extension for the
// type, e.g. "json" or "fastq.lz4". Compound extensions compose
// left-nested: a decorator type's Extension is "<inner>.<outer>".
type MartianFileType interface {
	Extension() string
}

// AppendExtension returns name with typ's extension appended, unless name
// already ends with that extension, in which case name is returned
// unchanged. This makes repeated application idempotent.
func AppendExtension(name string, typ MartianFileType) string {
	ext := "." + typ.Extension()
	if strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

// Compound builds a left-nested compound extension from inner to outer,
// e.g. Compound("json", "lz4") == "json.lz4".
func Compound(inner, outer string) string {
	return inner + "." + outer
}
