package rdfa

import "fmt"

// Severity grades a Diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// Diagnostic is a processor message. Recoverable problems (an unresolved
// CURIE, a malformed prefix declaration, an unreachable nested vocabulary)
// are reported this way and processing continues; a Fatal diagnostic stops
// the document.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Node is the name of the offending element, if any
	Node string
	// Context is the URI of the document or vocabulary the message is about
	Context string
	Fatal   bool
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Severity, d.Message)
	if d.Node != "" {
		s += fmt.Sprintf(" (element <%s>)", d.Node)
	}
	if d.Context != "" {
		s += fmt.Sprintf(" [%s]", d.Context)
	}
	return s
}
