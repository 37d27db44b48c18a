package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/roadauthority/internal/qr"
)

var ErrUnrecognizedPayload = errors.New("unrecognized verification payload")

// Claim is what a scanned QR payload asserts about a document.
type Claim struct {
	Type   DocumentType `json:"type"`
	Number string       `json:"number"`
	Fields []Field      `json:"fields"`
}

var prefixes = []struct {
	prefix string
	typ    DocumentType
}{
	{LicensePrefix, License},
	{"VC-", VehicleCard},
	{"TT-", TaxToken},
}

// ReadClaim decodes a payload produced by Document.Payload. The document type
// is inferred from the number prefix.
func ReadClaim(p qr.Payload) (Claim, error) {
	values := qr.Decode(p)
	if len(values) == 0 {
		return Claim{}, fmt.Errorf("%w: empty payload", ErrUnrecognizedPayload)
	}
	var typ DocumentType
	for _, candidate := range prefixes {
		if strings.HasPrefix(values[0], candidate.prefix) {
			typ = candidate.typ
			break
		}
	}
	if typ == "" {
		return Claim{}, fmt.Errorf("%w: unknown number prefix in %q", ErrUnrecognizedPayload, values[0])
	}
	labels := qrLabels[typ]
	if len(values) != len(labels) {
		return Claim{}, fmt.Errorf("%w: %s payload has %d fields, want %d", ErrUnrecognizedPayload, typ, len(values), len(labels))
	}
	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = Field{Label: labels[i], Value: v}
	}
	return Claim{Type: typ, Number: values[0], Fields: fields}, nil
}
