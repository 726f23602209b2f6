package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TurtleParser is a Turtle/N-Triples parser sufficient for vocabulary documents:
// prefix and base directives, predicate-object lists, blank node property lists
// and collections.
type TurtleParser struct {
	input            string
	pos              int
	length           int
	prefixes         map[string]string
	base             string
	blankNodeCounter int
	strictNTriples   bool      // When true, enforce strict N-Triples syntax
	triples          []*Triple // statements collected so far, including nested ones
}

// NewTurtleParser creates a new Turtle parser
func NewTurtleParser(input string) *TurtleParser {
	return &TurtleParser{
		input:    input,
		length:   len(input),
		prefixes: make(map[string]string),
	}
}

// NewNTriplesParser creates a new N-Triples parser with strict validation
func NewNTriplesParser(input string) *TurtleParser {
	p := NewTurtleParser(input)
	p.strictNTriples = true
	return p
}

// SetBaseURI sets the base URI for resolving relative IRIs
func (p *TurtleParser) SetBaseURI(baseURI string) {
	p.base = baseURI
}

// Parse parses the Turtle document and returns triples
func (p *TurtleParser) Parse() ([]*Triple, error) {
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			break
		}

		// @prefix must be lowercase, PREFIX can be any case
		if p.matchExactKeyword("@prefix") || p.matchKeyword("PREFIX") {
			if p.strictNTriples {
				return nil, fmt.Errorf("PREFIX directive not allowed in N-Triples")
			}
			if err := p.parsePrefix(); err != nil {
				return nil, err
			}
			continue
		}

		turtleBase := p.matchExactKeyword("@base")
		if turtleBase || p.matchKeyword("BASE") {
			if p.strictNTriples {
				return nil, fmt.Errorf("BASE directive not allowed in N-Triples")
			}
			if err := p.parseBase(turtleBase); err != nil {
				return nil, err
			}
			continue
		}

		if err := p.parseTriples(); err != nil {
			return nil, err
		}
	}

	return p.triples, nil
}

func (p *TurtleParser) skipWhitespaceAndComments() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// matchKeyword consumes keyword (case-insensitive) when it is followed by whitespace
func (p *TurtleParser) matchKeyword(keyword string) bool {
	end := p.pos + len(keyword)
	if end > p.length || !strings.EqualFold(p.input[p.pos:end], keyword) {
		return false
	}
	if end < p.length && !isTurtleSpace(p.input[end]) && p.input[end] != '<' {
		return false
	}
	p.pos = end
	return true
}

// matchExactKeyword consumes keyword (case-sensitive) when it is not followed by a name character
func (p *TurtleParser) matchExactKeyword(keyword string) bool {
	end := p.pos + len(keyword)
	if end > p.length || p.input[p.pos:end] != keyword {
		return false
	}
	if end < p.length {
		r, _ := utf8.DecodeRuneInString(p.input[end:])
		if isPN_CHARS(r) || r == ':' {
			return false
		}
	}
	p.pos = end
	return true
}

func isTurtleSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func (p *TurtleParser) parsePrefix() error {
	p.skipWhitespaceAndComments()

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' && !isTurtleSpace(p.input[p.pos]) {
		p.pos++
	}
	if p.pos >= p.length || p.input[p.pos] != ':' {
		return fmt.Errorf("expected ':' after prefix name at position %d", p.pos)
	}
	prefix := p.input[start:p.pos]
	p.pos++

	p.skipWhitespaceAndComments()
	iri, err := p.parseIRI()
	if err != nil {
		return fmt.Errorf("failed to parse prefix IRI: %w", err)
	}
	p.prefixes[prefix] = iri

	p.skipWhitespaceAndComments()
	if p.pos < p.length && p.input[p.pos] == '.' {
		p.pos++
	}
	return nil
}

func (p *TurtleParser) parseBase(turtleStyle bool) error {
	p.skipWhitespaceAndComments()

	iri, err := p.parseIRI()
	if err != nil {
		return fmt.Errorf("failed to parse base IRI: %w", err)
	}
	p.base = iri

	p.skipWhitespaceAndComments()
	if p.pos < p.length && p.input[p.pos] == '.' {
		if !turtleStyle {
			return fmt.Errorf("SPARQL-style BASE should not be followed by '.'")
		}
		p.pos++
	}
	return nil
}

// parseTriples parses one statement: a subject followed by a predicate-object
// list, or a standalone blank node property list, terminated by '.'
func (p *TurtleParser) parseTriples() error {
	standalone := p.pos < p.length && p.input[p.pos] == '['

	subject, err := p.parseSubject()
	if err != nil {
		return fmt.Errorf("failed to parse subject: %w", err)
	}

	p.skipWhitespaceAndComments()
	if standalone && p.pos < p.length && p.input[p.pos] == '.' {
		p.pos++
		return nil
	}

	if err := p.parsePredicateObjectList(subject, '.'); err != nil {
		return err
	}

	p.skipWhitespaceAndComments()
	if p.pos >= p.length || p.input[p.pos] != '.' {
		return fmt.Errorf("expected '.' at end of statement at position %d", p.pos)
	}
	p.pos++
	return nil
}

func (p *TurtleParser) parseSubject() (Term, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	switch t := term.(type) {
	case *Literal:
		return nil, fmt.Errorf("literals cannot be used as subjects")
	case *NamedNode:
		if t.IRI == RDFType.IRI && p.input[p.pos-1] == 'a' {
			return nil, fmt.Errorf("keyword 'a' cannot be used as subject")
		}
	}
	return term, nil
}

// parsePredicateObjectList parses "p o1, o2; p2 o3" until terminator (not consumed)
func (p *TurtleParser) parsePredicateObjectList(subject Term, terminator byte) error {
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			return fmt.Errorf("unexpected end of input in predicate list")
		}
		if p.input[p.pos] == terminator {
			return nil
		}

		predicate, err := p.parseTerm()
		if err != nil {
			return fmt.Errorf("failed to parse predicate: %w", err)
		}
		if _, ok := predicate.(*NamedNode); !ok {
			return fmt.Errorf("predicate must be an IRI, got %s", predicate)
		}

		for {
			object, err := p.parseTerm()
			if err != nil {
				return fmt.Errorf("failed to parse object: %w", err)
			}
			p.triples = append(p.triples, NewTriple(subject, predicate, object))

			p.skipWhitespaceAndComments()
			if p.pos < p.length && p.input[p.pos] == ',' {
				if p.strictNTriples {
					return fmt.Errorf("object lists not allowed in N-Triples")
				}
				p.pos++
				continue
			}
			break
		}

		if p.pos < p.length && p.input[p.pos] == ';' {
			if p.strictNTriples {
				return fmt.Errorf("predicate lists not allowed in N-Triples")
			}
			// repeated ';' is allowed
			for p.pos < p.length && p.input[p.pos] == ';' {
				p.pos++
				p.skipWhitespaceAndComments()
			}
			continue
		}
		return nil
	}
}

func (p *TurtleParser) parseTerm() (Term, error) {
	p.skipWhitespaceAndComments()
	if p.pos >= p.length {
		return nil, fmt.Errorf("unexpected end of input")
	}

	ch := p.input[p.pos]
	switch {
	case ch == '<':
		iri, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return NewNamedNode(iri), nil
	case ch == '_' && p.pos+1 < p.length && p.input[p.pos+1] == ':':
		return p.parseBlankNode()
	case ch == '[':
		if p.strictNTriples {
			return nil, fmt.Errorf("anonymous blank nodes not allowed in N-Triples")
		}
		return p.parseBlankNodePropertyList()
	case ch == '(':
		if p.strictNTriples {
			return nil, fmt.Errorf("collections not allowed in N-Triples")
		}
		return p.parseCollection()
	case ch == '"' || ch == '\'':
		return p.parseLiteral()
	case isNumberStart(p.input[p.pos:]):
		if p.strictNTriples {
			return nil, fmt.Errorf("bare numeric literals not allowed in N-Triples at position %d", p.pos)
		}
		return p.parseNumber()
	}

	if p.strictNTriples {
		return nil, fmt.Errorf("unexpected character: %c at position %d", ch, p.pos)
	}
	if p.matchExactKeyword("a") {
		return RDFType, nil
	}
	if p.matchExactKeyword("true") {
		return NewLiteralWithDatatype("true", XSDBoolean), nil
	}
	if p.matchExactKeyword("false") {
		return NewLiteralWithDatatype("false", XSDBoolean), nil
	}
	r, _ := p.peekRune()
	if isPN_CHARS_BASE(r) || ch == ':' {
		return p.parsePrefixedName()
	}
	return nil, fmt.Errorf("unexpected character: %c at position %d", ch, p.pos)
}

func isNumberStart(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && s[i] >= '0' && s[i] <= '9'
}

func (p *TurtleParser) peekRune() (rune, int) {
	if p.pos >= p.length {
		return 0, 0
	}
	return utf8.DecodeRuneInString(p.input[p.pos:])
}

// isPN_CHARS_BASE checks if a rune is a PN_CHARS_BASE character per the Turtle grammar
func isPN_CHARS_BASE(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 0x00C0 && r <= 0x00D6) ||
		(r >= 0x00D8 && r <= 0x00F6) ||
		(r >= 0x00F8 && r <= 0x02FF) ||
		(r >= 0x0370 && r <= 0x037D) ||
		(r >= 0x037F && r <= 0x1FFF) ||
		(r >= 0x200C && r <= 0x200D) ||
		(r >= 0x2070 && r <= 0x218F) ||
		(r >= 0x2C00 && r <= 0x2FEF) ||
		(r >= 0x3001 && r <= 0xD7FF) ||
		(r >= 0xF900 && r <= 0xFDCF) ||
		(r >= 0xFDF0 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0xEFFFF)
}

func isPN_CHARS_U(r rune) bool {
	return isPN_CHARS_BASE(r) || r == '_'
}

func isPN_CHARS(r rune) bool {
	return isPN_CHARS_U(r) ||
		r == '-' ||
		(r >= '0' && r <= '9') ||
		r == 0x00B7 ||
		(r >= 0x0300 && r <= 0x036F) ||
		(r >= 0x203F && r <= 0x2040)
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// parseIRI parses an IRI in angle brackets and resolves it against the base
func (p *TurtleParser) parseIRI() (string, error) {
	if p.pos >= p.length || p.input[p.pos] != '<' {
		return "", fmt.Errorf("expected '<' at start of IRI")
	}
	p.pos++

	var result strings.Builder
	for p.pos < p.length && p.input[p.pos] != '>' {
		ch := p.input[p.pos]
		if ch == '\\' {
			escaped, err := p.processUnicodeEscape()
			if err != nil {
				return "", err
			}
			result.WriteString(escaped)
			continue
		}
		if ch == ' ' || ch == '<' || ch == '"' || ch <= 0x1F {
			return "", fmt.Errorf("invalid character in IRI: %q at position %d", ch, p.pos)
		}
		result.WriteByte(ch)
		p.pos++
	}
	if p.pos >= p.length {
		return "", fmt.Errorf("unclosed IRI")
	}
	p.pos++

	iri := result.String()
	if strings.Contains(iri, ":") {
		return iri, nil
	}
	if p.strictNTriples {
		return "", fmt.Errorf("relative IRI not allowed in N-Triples: %s", iri)
	}
	return ResolveIRI(p.base, iri), nil
}

// processUnicodeEscape decodes \uXXXX or \UXXXXXXXX at the current position
func (p *TurtleParser) processUnicodeEscape() (string, error) {
	if p.pos+1 >= p.length {
		return "", fmt.Errorf("incomplete escape sequence at position %d", p.pos)
	}
	var digits int
	switch p.input[p.pos+1] {
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return "", fmt.Errorf("invalid escape sequence at position %d", p.pos)
	}
	start := p.pos + 2
	end := start + digits
	if end > p.length {
		return "", fmt.Errorf("incomplete unicode escape at position %d", p.pos)
	}
	for i := start; i < end; i++ {
		if !isHexDigit(p.input[i]) {
			return "", fmt.Errorf("invalid unicode escape at position %d", p.pos)
		}
	}
	code, err := strconv.ParseUint(p.input[start:end], 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid unicode escape: %w", err)
	}
	if code > utf8.MaxRune || (code >= 0xD800 && code <= 0xDFFF) {
		return "", fmt.Errorf("invalid code point U+%X", code)
	}
	p.pos = end
	return string(rune(code)), nil
}

func (p *TurtleParser) parseBlankNode() (Term, error) {
	p.pos += 2 // skip '_:'
	start := p.pos

	r, size := p.peekRune()
	if !isPN_CHARS_U(r) && !(r >= '0' && r <= '9') {
		return nil, fmt.Errorf("invalid blank node label start character at position %d", p.pos)
	}
	p.pos += size

	for p.pos < p.length {
		r, size := p.peekRune()
		if !isPN_CHARS(r) && r != '.' {
			break
		}
		p.pos += size
	}
	// labels cannot end with '.'
	for p.input[p.pos-1] == '.' {
		p.pos--
	}

	return NewBlankNode(p.input[start:p.pos]), nil
}

func (p *TurtleParser) newBlankNode() *BlankNode {
	p.blankNodeCounter++
	return NewBlankNode(fmt.Sprintf("genid%d", p.blankNodeCounter))
}

// parseBlankNodePropertyList parses [] or [ p o ; ... ]
func (p *TurtleParser) parseBlankNodePropertyList() (Term, error) {
	p.pos++ // skip '['
	node := p.newBlankNode()

	if err := p.parsePredicateObjectList(node, ']'); err != nil {
		return nil, fmt.Errorf("in blank node property list: %w", err)
	}
	if p.pos >= p.length || p.input[p.pos] != ']' {
		return nil, fmt.Errorf("expected ']' at position %d", p.pos)
	}
	p.pos++
	return node, nil
}

// parseCollection parses ( ... ) into rdf:first/rdf:rest statements
func (p *TurtleParser) parseCollection() (Term, error) {
	p.pos++ // skip '('

	var items []Term
	for {
		p.skipWhitespaceAndComments()
		if p.pos >= p.length {
			return nil, fmt.Errorf("unexpected end of input in collection")
		}
		if p.input[p.pos] == ')' {
			p.pos++
			break
		}
		item, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("failed to parse collection item: %w", err)
		}
		items = append(items, item)
	}

	var head Term = RDFNil
	for i := len(items) - 1; i >= 0; i-- {
		node := p.newBlankNode()
		p.triples = append(p.triples,
			NewTriple(node, RDFFirst, items[i]),
			NewTriple(node, RDFRest, head))
		head = node
	}
	return head, nil
}

func (p *TurtleParser) parseLiteral() (Term, error) {
	quote := p.input[p.pos]
	if quote == '\'' && p.strictNTriples {
		return nil, fmt.Errorf("single-quoted literals not allowed in N-Triples")
	}

	delimiter := string(quote)
	if strings.HasPrefix(p.input[p.pos:], strings.Repeat(delimiter, 3)) {
		if p.strictNTriples {
			return nil, fmt.Errorf("triple-quoted literals not allowed in N-Triples")
		}
		delimiter = strings.Repeat(delimiter, 3)
	}
	p.pos += len(delimiter)

	var value strings.Builder
	closed := false
	for p.pos < p.length {
		if strings.HasPrefix(p.input[p.pos:], delimiter) {
			p.pos += len(delimiter)
			closed = true
			break
		}
		ch := p.input[p.pos]
		if len(delimiter) == 1 && (ch == '\n' || ch == '\r') {
			return nil, fmt.Errorf("line break in short string literal at position %d", p.pos)
		}
		if ch != '\\' {
			value.WriteByte(ch)
			p.pos++
			continue
		}
		if p.pos+1 >= p.length {
			break
		}
		switch next := p.input[p.pos+1]; next {
		case 'u', 'U':
			escaped, err := p.processUnicodeEscape()
			if err != nil {
				return nil, err
			}
			value.WriteString(escaped)
			continue
		case 'n':
			value.WriteByte('\n')
		case 't':
			value.WriteByte('\t')
		case 'r':
			value.WriteByte('\r')
		case 'b':
			value.WriteByte('\b')
		case 'f':
			value.WriteByte('\f')
		case '"', '\'', '\\':
			value.WriteByte(next)
		default:
			return nil, fmt.Errorf("invalid escape sequence \\%c at position %d", next, p.pos)
		}
		p.pos += 2
	}
	if !closed {
		return nil, fmt.Errorf("unclosed string literal")
	}

	if p.pos < p.length && p.input[p.pos] == '@' {
		p.pos++
		start := p.pos
		for p.pos < p.length && (isASCIILetter(p.input[p.pos]) || isDigit(p.input[p.pos]) || p.input[p.pos] == '-') {
			p.pos++
		}
		lang := p.input[start:p.pos]
		if lang == "" || !isASCIILetter(lang[0]) {
			return nil, fmt.Errorf("invalid language tag at position %d", start)
		}
		return NewLiteralWithLanguage(value.String(), lang), nil
	}

	if strings.HasPrefix(p.input[p.pos:], "^^") {
		p.pos += 2
		datatype, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("failed to parse datatype: %w", err)
		}
		node, ok := datatype.(*NamedNode)
		if !ok {
			return nil, fmt.Errorf("datatype must be an IRI or prefixed name")
		}
		return NewLiteralWithDatatype(value.String(), node), nil
	}

	return NewLiteral(value.String()), nil
}

func isASCIILetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// parseNumber parses integer, decimal and double literals, preserving the lexical form
func (p *TurtleParser) parseNumber() (Term, error) {
	start := p.pos
	if p.input[p.pos] == '+' || p.input[p.pos] == '-' {
		p.pos++
	}
	for p.pos < p.length && isDigit(p.input[p.pos]) {
		p.pos++
	}

	datatype := XSDInteger
	// a '.' not followed by a digit terminates the statement
	if p.pos+1 < p.length && p.input[p.pos] == '.' && isDigit(p.input[p.pos+1]) {
		datatype = XSDDecimal
		p.pos++
		for p.pos < p.length && isDigit(p.input[p.pos]) {
			p.pos++
		}
	}
	if p.pos < p.length && (p.input[p.pos] == 'e' || p.input[p.pos] == 'E') {
		datatype = XSDDouble
		p.pos++
		if p.pos < p.length && (p.input[p.pos] == '+' || p.input[p.pos] == '-') {
			p.pos++
		}
		digits := p.pos
		for p.pos < p.length && isDigit(p.input[p.pos]) {
			p.pos++
		}
		if digits == p.pos {
			return nil, fmt.Errorf("expected digits in exponent at position %d", p.pos)
		}
	}

	return NewLiteralWithDatatype(p.input[start:p.pos], datatype), nil
}

// parsePrefixedName parses a prefixed name (e.g., ex:foo or :foo)
func (p *TurtleParser) parsePrefixedName() (Term, error) {
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		r, size := p.peekRune()
		if !isPN_CHARS(r) && r != '.' {
			break
		}
		p.pos += size
	}
	if p.pos >= p.length || p.input[p.pos] != ':' {
		return nil, fmt.Errorf("expected ':' in prefixed name at position %d", p.pos)
	}
	prefix := p.input[start:p.pos]
	p.pos++

	var local strings.Builder
	for p.pos < p.length {
		r, size := p.peekRune()
		switch {
		case r == '%':
			if p.pos+2 >= p.length || !isHexDigit(p.input[p.pos+1]) || !isHexDigit(p.input[p.pos+2]) {
				return nil, fmt.Errorf("invalid percent encoding in prefixed name at position %d", p.pos)
			}
			local.WriteString(p.input[p.pos : p.pos+3])
			p.pos += 3
			continue
		case r == '\\':
			if p.pos+1 >= p.length || !strings.ContainsRune("_~.-!$&'()*+,;=/?#@%", rune(p.input[p.pos+1])) {
				return nil, fmt.Errorf("invalid escape sequence in prefixed name at position %d", p.pos)
			}
			local.WriteByte(p.input[p.pos+1])
			p.pos += 2
			continue
		case isPN_CHARS(r) || r == ':' || r == '.':
			local.WriteRune(r)
			p.pos += size
			continue
		}
		break
	}

	// local names cannot end with '.'; give the dots back to the statement
	name := local.String()
	trimmed := strings.TrimRight(name, ".")
	p.pos -= len(name) - len(trimmed)

	ns, ok := p.prefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("undefined prefix: '%s'", prefix)
	}
	return NewNamedNode(ns + trimmed), nil
}
