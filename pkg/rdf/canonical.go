package rdf

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteNTriples writes triples as N-Triples, one statement per line, in input order.
func WriteNTriples(w io.Writer, triples []*Triple) error {
	for _, triple := range triples {
		if _, err := io.WriteString(w, SerializeTriple(triple)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// SortedNTriples serializes triples as N-Triples lines in lexical order,
// which makes the output of two runs over the same input comparable with diff.
func SortedNTriples(triples []*Triple) string {
	lines := make([]string, 0, len(triples))
	for _, triple := range triples {
		lines = append(lines, SerializeTriple(triple))
	}
	sort.Strings(lines)

	var builder strings.Builder
	for _, line := range lines {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return builder.String()
}

// SerializeTriple renders one triple in canonical N-Triples form
func SerializeTriple(triple *Triple) string {
	return serializeTermCanonical(triple.Subject) + " " +
		serializeTermCanonical(triple.Predicate) + " " +
		serializeTermCanonical(triple.Object) + " ."
}

func serializeTermCanonical(term Term) string {
	switch t := term.(type) {
	case *NamedNode:
		return "<" + t.IRI + ">"
	case *BlankNode:
		return "_:" + t.ID
	case *Literal:
		return serializeLiteralCanonical(t)
	default:
		return ""
	}
}

func serializeLiteralCanonical(lit *Literal) string {
	escaped := escapeStringCanonical(lit.Value)

	if lit.Language != "" {
		return fmt.Sprintf(`"%s"@%s`, escaped, strings.ToLower(lit.Language))
	}
	// xsd:string is implicit
	if lit.Datatype != nil && lit.Datatype.IRI != XSDString.IRI {
		return fmt.Sprintf(`"%s"^^<%s>`, escaped, lit.Datatype.IRI)
	}
	return `"` + escaped + `"`
}

// escapeStringCanonical escapes a string value for canonical N-Triples output:
// named escapes for \t \b \n \r \f \" \\ and \uXXXX for other control characters
func escapeStringCanonical(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\t':
			builder.WriteString(`\t`)
		case '\b':
			builder.WriteString(`\b`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\f':
			builder.WriteString(`\f`)
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		default:
			if r < 0x20 || r == 0x7F || r == 0xFFFE || r == 0xFFFF {
				fmt.Fprintf(&builder, `\u%04X`, r)
			} else {
				builder.WriteRune(r)
			}
		}
	}

	return builder.String()
}
