package rdfa

import (
	"strings"

	"github.com/aleksaelezovic/rdfa/internal/markup"
	"github.com/aleksaelezovic/rdfa/pkg/rdf"
)

// attrRole is the way an attribute value is turned into a term
type attrRole int

const (
	// rolePureURI values are URI references; CURIEs are not allowed
	rolePureURI attrRole = iota
	// roleCURIEOrURI values are (safe) CURIEs, falling back to URIs
	roleCURIEOrURI
	// roleTermOrCURIEOrURI values are terms, CURIEs or absolute URIs
	roleTermOrCURIEOrURI
)

func roleOf(attr string) attrRole {
	switch attr {
	case "about", "resource":
		return roleCURIEOrURI
	case "rel", "rev", "property", "typeof", "datatype":
		return roleTermOrCURIEOrURI
	default:
		// href, src, vocab, profile
		return rolePureURI
	}
}

// isListAttr reports whether attr holds a white space separated list
func isListAttr(attr string) bool {
	switch attr {
	case "rel", "rev", "property", "typeof", "profile":
		return true
	}
	return false
}

// relevantAttrs trigger subject and object processing on an element
var relevantAttrs = []string{
	"href", "resource", "about", "property", "rel", "rev", "typeof", "src",
	"vocab", "prefix", "profile",
}

// resource resolves a single valued attribute of the context node. It
// returns nil when the attribute is absent or its value does not resolve.
func (c *ExecutionContext) resource(attr string) rdf.Term {
	val, ok := markup.Attr(c.node, attr)
	if !ok {
		return nil
	}
	return c.resolveValue(attr, val)
}

// resources resolves every value of a list attribute, dropping those that
// do not resolve
func (c *ExecutionContext) resources(attr string) []rdf.Term {
	val, ok := markup.Attr(c.node, attr)
	if !ok {
		return nil
	}
	var out []rdf.Term
	for _, v := range strings.Fields(val) {
		if t := c.resolveValue(attr, v); t != nil {
			out = append(out, t)
		}
	}
	return out
}

func (c *ExecutionContext) resolveValue(attr, val string) rdf.Term {
	val = strings.TrimSpace(val)
	switch roleOf(attr) {
	case roleCURIEOrURI:
		return c.curieOrURI(val)
	case roleTermOrCURIEOrURI:
		return c.termOrCURIEOrURI(attr, val)
	default:
		return c.uriWithBase(attr, val)
	}
}

func (c *ExecutionContext) uriWithBase(attr, val string) rdf.Term {
	if val == "" {
		return rdf.NewNamedNode(c.Base)
	}
	if isSafeCURIE(val) {
		c.errorf("illegal usage of a safe CURIE in @%s: %s", attr, val)
		return nil
	}
	return c.pureURI(val)
}

func (c *ExecutionContext) curieOrURI(val string) rdf.Term {
	if val == "" {
		return rdf.NewNamedNode(c.Base)
	}
	if strings.HasPrefix(val, "[") {
		if !strings.HasSuffix(val, "]") {
			c.warnf("illegal safe CURIE: %s", val)
			return nil
		}
		inner := val[1 : len(val)-1]
		if t := c.Table.ResolveCURIE(inner, c.w.bnodes); t != nil {
			return t
		}
		c.warnf("safe CURIE was used but value does not correspond to a defined CURIE: %s", val)
		return nil
	}
	if t := c.Table.ResolveCURIE(val, c.w.bnodes); t != nil {
		return t
	}
	return c.pureURI(val)
}

func (c *ExecutionContext) termOrCURIEOrURI(attr, val string) rdf.Term {
	if val == "" {
		return nil
	}
	safe := false
	if strings.HasPrefix(val, "[") {
		if !strings.HasSuffix(val, "]") {
			c.warnf("illegal safe CURIE in @%s: %s", attr, val)
			return nil
		}
		val = val[1 : len(val)-1]
		safe = true
	}

	if !strings.Contains(val, ":") {
		if t := c.Table.ResolveTerm(val); t != nil {
			return t
		}
		c.warnf("unresolvable term in @%s: %s", attr, val)
		return nil
	}
	if t := c.Table.ResolveCURIE(val, c.w.bnodes); t != nil {
		return t
	}
	if safe {
		c.warnf("safe CURIE was used but value does not correspond to a defined CURIE: [%s]", val)
		return nil
	}
	if !c.Version.vocabularies() {
		c.warnf("undefined CURIE prefix in @%s: %s", attr, val)
		return nil
	}
	if scheme(val) == "" {
		c.warnf("relative URI is not allowed in @%s: %s", attr, val)
		return nil
	}
	c.checkScheme(val)
	return rdf.NewNamedNode(val)
}

func isSafeCURIE(val string) bool {
	return strings.HasPrefix(val, "[") && strings.HasSuffix(val, "]")
}
