// Package qr builds the verification payload printed on credential documents
// and the request URL for the external QR image service.
package qr

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Separator joins payload fields. It is not escaped, so no field may contain it.
const Separator = "|"

const DefaultBaseURL = "https://api.qrserver.com/v1/create-qr-code/"

// Payload is the opaque string encoded into the QR image.
type Payload string

var ErrEncodingHazard = errors.New("qr field contains payload separator")

// HazardError reports the field that would make the payload ambiguous.
type HazardError struct {
	Index int
	Field string
}

func (e *HazardError) Error() string {
	return fmt.Sprintf("qr: field %d (%q) contains separator %q", e.Index, e.Field, Separator)
}

func (e *HazardError) Unwrap() error { return ErrEncodingHazard }

// Encode joins fields in order. A field holding the separator is rejected
// rather than producing a payload that splits differently on decode.
func Encode(fields []string) (Payload, error) {
	for i, f := range fields {
		if strings.Contains(f, Separator) {
			return "", &HazardError{Index: i, Field: f}
		}
	}
	return Payload(strings.Join(fields, Separator)), nil
}

// Decode splits a payload back into its fields.
func Decode(p Payload) []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), Separator)
}

// Endpoint is the external QR image collaborator. The core only builds the
// request URL; the image is never fetched here.
type Endpoint struct {
	BaseURL string
}

func NewEndpoint(baseURL string) Endpoint {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Endpoint{BaseURL: baseURL}
}

// RequestURL builds "<base>?size=<W>x<H>&data=<payload>" with the payload
// percent-encoded as encodeURIComponent does: spaces as %20, and
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) left as is.
func (e Endpoint) RequestURL(p Payload, sizePx int) (string, error) {
	if sizePx <= 0 {
		return "", fmt.Errorf("qr: invalid image size %d", sizePx)
	}
	base := e.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("qr: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("qr: base url %q is not absolute", base)
	}
	size := strconv.Itoa(sizePx)
	u.RawQuery = "size=" + size + "x" + size + "&data=" + escapeComponent(string(p))
	return u.String(), nil
}

// componentUnescaper undoes QueryEscape for the characters a browser's
// encodeURIComponent leaves alone, so URLs match the ones the portal printed.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
