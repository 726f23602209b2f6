package rdf

import (
	"net/url"
	"strings"
)

// ResolveIRI resolves ref against base following RFC 3986. An empty or
// unparsable base leaves ref untouched.
func ResolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	resolved := b.ResolveReference(r).String()
	// ResolveReference drops an empty query or fragment marker
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(resolved, "#") {
		resolved += "#"
	} else if strings.HasSuffix(ref, "?") && !strings.HasSuffix(resolved, "?") {
		resolved += "?"
	}
	return resolved
}

// unquotedIRIChars are the characters QuoteIRI leaves alone besides
// ASCII letters, digits and "_.-"
const unquotedIRIChars = ":/\\?=#~"

// QuoteIRI trims s and percent-encodes every byte that is not a letter, digit,
// one of "_.-" or one of `:/\?=#~`. Existing %XX escapes are kept. The
// second result reports whether s contained interior whitespace, which
// usually means two values were run together.
func QuoteIRI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	suspicious := strings.ContainsAny(s, " \n\r\t")

	const hex = "0123456789ABCDEF"
	var builder strings.Builder
	builder.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '_', c == '.', c == '-', strings.IndexByte(unquotedIRIChars, c) >= 0:
			builder.WriteByte(c)
		case c == '%' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]):
			builder.WriteByte(c)
		default:
			builder.WriteByte('%')
			builder.WriteByte(hex[c>>4])
			builder.WriteByte(hex[c&0x0F])
		}
	}
	return builder.String(), suspicious
}
