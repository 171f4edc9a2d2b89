package soap

import (
	"encoding/xml"
	"strings"

	"github.com/waftester/apiprobe/pkg/target"
)

// DefaultEnvelope is used when the target carries no SOAP body.
const DefaultEnvelope = "<soap:Envelope><soap:Body></soap:Body></soap:Envelope>"

const bodyClose = "</soap:Body>"

// Inject splices payload into envelope as a <test> element placed just
// before every closing body tag. The payload is not escaped. An
// envelope without a closing body tag is returned unchanged.
func Inject(envelope, payload string) string {
	return strings.ReplaceAll(envelope, bodyClose, "<test>"+payload+"</test>"+bodyClose)
}

// EnvelopeOf returns the target's text body, or DefaultEnvelope when it
// has none. Structured bodies cannot carry XML and are ignored.
func EnvelopeOf(t *target.Target) string {
	if t.Body.Text != "" {
		return t.Body.Text
	}
	return DefaultEnvelope
}

// Fault is a SOAP 1.1 fault.
type Fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
	Actor  string `xml:"faultactor,omitempty"`
	Detail string `xml:"detail,omitempty"`
}

type faultEnvelope struct {
	Body struct {
		Fault *Fault `xml:"Fault"`
	} `xml:"Body"`
}

// ParseFault extracts the fault from a SOAP response, if any.
func ParseFault(body string) (*Fault, bool) {
	var env faultEnvelope
	if err := xml.Unmarshal([]byte(body), &env); err != nil || env.Body.Fault == nil {
		return nil, false
	}
	return env.Body.Fault, true
}
