package rdfa

import (
	"net/url"
	"strings"

	"github.com/aleksaelezovic/rdfa/pkg/rdf"
)

// knownSchemes are the IANA registered URI schemes plus a few in wide use.
// An absolute URI with any other scheme is usually a CURIE whose prefix was
// never declared.
var knownSchemes = map[string]bool{}

func init() {
	for _, s := range strings.Fields(`
		aaa aaas acap afs cap cid crid data dav dict dns doi dtn dvb fax file
		ftp geo go gopher h323 hdl http https iax icap icon im imap info ipp
		iris iris.beep iris.lwz iris.xpc iris.xpcs ldap mailserver mailto mid
		mms modem msrp msrps mtqp mupdate news nfs nntp opaquelocktoken pack
		pop pres prospero rsync rtsp rtspu service sftp shttp sieve sip sips
		sms snews snmp soap.beep soap.beeps svn svn+ssh tag tel telnet tftp
		tn3270 tv urn vemmi videotex wais ws wss xmlrpc.beep xmlrpc.beeps
		xmpp z39.50r z39.50s`) {
		knownSchemes[s] = true
	}
}

// scheme returns the lower-cased scheme of s, or "" for a relative reference
func scheme(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		i := strings.IndexByte(s, ':')
		if i <= 0 {
			return ""
		}
		return strings.ToLower(s[:i])
	}
	return strings.ToLower(u.Scheme)
}

// pureURI resolves val against the context base. A base without a scheme
// (a local file name) is prepended to relative values as is.
func (c *ExecutionContext) pureURI(val string) *rdf.NamedNode {
	val = strings.TrimSpace(val)
	var iri string
	switch {
	case scheme(val) != "":
		iri = val
	case scheme(c.Base) == "":
		iri = c.Base + val
	default:
		iri = rdf.ResolveIRI(c.Base, val)
	}
	c.checkScheme(iri)
	return rdf.NewNamedNode(iri)
}

func (c *ExecutionContext) checkScheme(iri string) {
	s := scheme(iri)
	if s == "" || knownSchemes[s] {
		return
	}
	c.warnf("unusual URI scheme used <%s>; may that be an undeclared CURIE prefix?", iri)
}

// quoteURI percent-encodes a prefix or vocabulary URI declared by attr
func (c *ExecutionContext) quoteURI(attr, value string) string {
	quoted, suspicious := rdf.QuoteIRI(value)
	if suspicious {
		c.warnf("white space in @%s value %q; this may be two values run together", attr, value)
	}
	return quoted
}
