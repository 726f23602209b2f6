package rdfa

import (
	"strings"

	"go.trai.ch/zerr"
)

// ErrUnknownVersion is returned by ParseVersion
var ErrUnknownVersion = zerr.New("unknown RDFa version")

// Version selects the RDFa processing rules
type Version int

const (
	// VersionAuto detects the version from the document: a root @version
	// naming RDFa 1.0 selects 1.0, anything else 1.1.
	VersionAuto Version = iota
	Version10
	Version11
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "1.0"
	case Version11:
		return "1.1"
	default:
		return "auto"
	}
}

// ParseVersion parses "1.0", "1.1" or "" (auto)
func ParseVersion(s string) (Version, error) {
	switch strings.TrimSpace(s) {
	case "":
		return VersionAuto, nil
	case "1.0":
		return Version10, nil
	case "1.1":
		return Version11, nil
	}
	return VersionAuto, zerr.With(zerr.Wrap(ErrUnknownVersion, "invalid version"), "version", s)
}

// The decision points that differ between the versions.

// lowercasePrefixes reports whether prefix names are case-insensitive
func (v Version) lowercasePrefixes() bool { return v != Version10 }

// vocabularies reports whether @vocab, @profile and @prefix are recognised
func (v Version) vocabularies() bool { return v != Version10 }

// lists reports whether @inlist is recognised
func (v Version) lists() bool { return v != Version10 }

// srcIsSubject reports whether @src sets the subject (1.0) rather than the object (1.1)
func (v Version) srcIsSubject() bool { return v == Version10 }

// implicitXMLLiterals reports whether element content without @datatype
// becomes an XML literal when it contains markup
func (v Version) implicitXMLLiterals() bool { return v == Version10 }

func detectVersion(versionAttr string) Version {
	if strings.Contains(versionAttr, "RDFa 1.0") {
		return Version10
	}
	return Version11
}
