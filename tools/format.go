package tools

import (
	"fmt"
	"strings"

	"github.com/lookbusy1344/thumbpatch/asm"
	"github.com/lookbusy1344/thumbpatch/patchfile"
)

// FormatOptions controls re-serialization layout.
type FormatOptions struct {
	IndentSize        int // spaces before each instruction line inside a block
	InstructionColumn int // not applied by Format: the mnemonic follows the indent directly
	OperandColumn     int // not applied by Format: operands follow the mnemonic after one space
}

// DefaultFormatOptions mirrors the teacher's tools/format.go defaults.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{IndentSize: 4, InstructionColumn: 0, OperandColumn: 8}
}

// Format re-serializes patch's masks and instruction lines back to the
// patch-file grammar. Grounded on the teacher's tools/format.go
// (column-based Formatter), generalized from ARM32 instruction/directive
// formatting to mask-then-block rendering. Re-parsing Format's output
// with ParsePatch and binding against the same binary reproduces the
// same bytes as formatting never happened — see DESIGN.md's
// parse-format-reparse property.
func Format(patch *patchfile.Patch, opts *FormatOptions) string {
	if opts == nil {
		opts = DefaultFormatOptions()
	}
	var b strings.Builder
	for i, blk := range patch.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		formatMask(&b, blk)
		b.WriteString(" {\n")
		for _, it := range blk.Items {
			formatItem(&b, it, opts)
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// formatMask renders blk's mask back to its token form. A negative
// Offset (New's fold of a leading skip part, see mask.New) is
// reconstructed as an explicit leading "?N" token with no "@" marker,
// which reproduces the same fold on re-parse; a non-negative Offset is
// rendered as an explicit "@" at the matching cumulative position.
func formatMask(b *strings.Builder, blk *patchfile.Block) {
	m := blk.Mask
	if m.Floating() {
		// A floating block has no mask tokens; the marker is a comment so
		// the output still re-parses, with "{" on the following line.
		b.WriteString("; floating\n")
		return
	}

	var tokens []string
	if m.Offset < 0 {
		tokens = append(tokens, fmt.Sprintf("?%d", -m.Offset))
	}

	offset := 0
	wroteAnchor := m.Offset < 0
	for _, p := range m.Parts {
		if !wroteAnchor && offset == m.Offset {
			tokens = append(tokens, "@")
			wroteAnchor = true
		}
		if p.Literal != nil {
			tokens = append(tokens, hexPairs(p.Literal))
			offset += len(p.Literal)
		} else {
			tokens = append(tokens, fmt.Sprintf("?%d", p.Skip))
			offset += p.Skip
		}
	}
	if !wroteAnchor {
		tokens = append(tokens, "@")
	}
	b.WriteString(strings.Join(tokens, " "))
}

func hexPairs(data []byte) string {
	parts := make([]string, len(data))
	for i, c := range data {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, " ")
}

func formatItem(b *strings.Builder, it asm.BlockItem, opts *FormatOptions) {
	indent := strings.Repeat(" ", opts.IndentSize)
	switch v := it.(type) {
	case *asm.LabelItem:
		if v.Global {
			fmt.Fprintf(b, "%sglobal %s\n", indent, v.Name)
		} else {
			fmt.Fprintf(b, "%s%s:\n", indent, v.Name)
		}
	case *asm.ValItem:
		fmt.Fprintf(b, "%sval %s\n", indent, v.Name)
	case *asm.Instance:
		line := v.Mnemonic
		if len(v.Args) > 0 {
			operands := make([]string, len(v.Args))
			for i, a := range v.Args {
				operands[i] = a.String()
			}
			line += " " + strings.Join(operands, ", ")
		}
		fmt.Fprintf(b, "%s%s\n", indent, line)
	}
}
