package mro

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Emit renders stages, in registration order, into one MRO source document:
// a header comment, a deduplicated filetype declaration block, then each
// stage's stanza separated by a blank line.
//
// headerComment, if non-empty, must consist only of blank lines and lines
// starting with "#"; it is followed by the canonical
// "Code generated ... DO NOT EDIT" block. If headerComment is empty, only
// the canonical block is emitted.
func Emit(stages []StageMro, headerComment, generatorName string) (string, error) {
	if err := validateHeaderComment(headerComment); err != nil {
		return "", err
	}

	var b strings.Builder
	if headerComment != "" {
		b.WriteString(headerComment)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "#\n# Code generated by %s.  DO NOT EDIT.\n#\n\n", generatorName)

	b.WriteString(renderFiletypeHeader(stages))

	rendered := make([]string, len(stages))
	for i, s := range stages {
		rendered[i] = s.Render()
	}
	b.WriteString(strings.Join(rendered, "\n"))

	return b.String(), nil
}

func validateHeaderComment(headerComment string) error {
	if headerComment == "" {
		return nil
	}
	for _, line := range strings.Split(headerComment, "\n") {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			return errors.Errorf("mro: header comment line must start with '#', got %q", line)
		}
	}
	return nil
}

// renderFiletypeHeader collects every declared file type extension seen
// across all stage and chunk fields, in first-seen order, and renders one
// "filetype <ext>;" declaration per extension.
func renderFiletypeHeader(stages []StageMro) string {
	seen := map[string]bool{}
	var exts []string

	collect := func(fields []MroField) {
		for _, f := range fields {
			if f.Type.Elem.Kind != KindFileType {
				continue
			}
			if seen[f.Type.Elem.Ext] {
				continue
			}
			seen[f.Type.Elem.Ext] = true
			exts = append(exts, f.Type.Elem.Ext)
		}
	}

	for _, s := range stages {
		collect(s.StageIO.Inputs)
		collect(s.StageIO.Outputs)
		if s.ChunkIO != nil {
			collect(s.ChunkIO.Inputs)
			collect(s.ChunkIO.Outputs)
		}
	}

	if len(exts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, ext := range exts {
		fmt.Fprintf(&b, "filetype %s;\n", ext)
	}
	b.WriteString("\n")
	return b.String()
}

// Render produces the textual stanza for one stage: its input/output
// fields, src line, optional split section, and optional using section,
// with the type column aligned across the whole stanza.
func (s StageMro) Render() string {
	tyWidth := s.StageIO.typeWidth()
	if s.ChunkIO != nil {
		if w := s.ChunkIO.typeWidth(); w > tyWidth {
			tyWidth = w
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "stage %s(\n", s.StageName)
	writeFields(&b, s.StageIO.Inputs, "in", tyWidth)
	writeFields(&b, s.StageIO.Outputs, "out", tyWidth)
	fmt.Fprintf(&b, "    %-3s %-*s \"%s martian %s\",\n", "src", tyWidth, "comp", s.AdapterName, s.StageKey)

	if s.ChunkIO != nil {
		b.WriteString(") split (\n")
		writeFields(&b, s.ChunkIO.Inputs, "in", tyWidth)
		writeFields(&b, s.ChunkIO.Outputs, "out", tyWidth)
	}

	if s.Using.NeedUsing() {
		b.WriteString(") using (\n")
		writeUsing(&b, s.Using)
	}

	b.WriteString(")\n")
	return b.String()
}

func writeFields(b *strings.Builder, fields []MroField, key string, tyWidth int) {
	for _, f := range fields {
		fmt.Fprintf(b, "    %-3s %-*s %s,\n", key, tyWidth, f.Type.String(), f.Name)
	}
}

func writeUsing(b *strings.Builder, u Using) {
	type entry struct{ key, val string }
	var entries []entry
	if u.MemGB != nil {
		entries = append(entries, entry{"mem_gb", strconv.Itoa(*u.MemGB)})
	}
	if u.VMemGB != nil {
		entries = append(entries, entry{"vmem_gb", strconv.Itoa(*u.VMemGB)})
	}
	if u.Threads != nil {
		entries = append(entries, entry{"threads", strconv.Itoa(*u.Threads)})
	}
	if u.Volatile != nil {
		entries = append(entries, entry{"volatile", *u.Volatile})
	}

	keyWidth := 0
	for _, e := range entries {
		if l := len(e.key); l > keyWidth {
			keyWidth = l
		}
	}
	for _, e := range entries {
		fmt.Fprintf(b, "    %-*s = %s,\n", keyWidth, e.key, e.val)
	}
}
