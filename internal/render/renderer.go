// Package render turns credential documents into two-sided printable
// artifacts and exports them through a presentation surface.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"

	"github.com/yourorg/roadauthority/internal/credential"
	"github.com/yourorg/roadauthority/internal/qr"
)

const (
	DefaultQRSizePx  = 200
	htmlContentType  = "text/html; charset=utf-8"
	gradientAngleCSS = "135deg"
)

// Artifact is a rendered document. Body is self-contained HTML; the QR image
// is referenced by URL and never fetched here.
type Artifact struct {
	DocumentType credential.DocumentType
	Number       string
	Target       string
	FileName     string
	ContentType  string
	Body         []byte
	Payload      qr.Payload
	QRURL        string
	Digest       string
}

type Renderer struct {
	qr       qr.Endpoint
	qrSizePx int
}

func NewRenderer(endpoint qr.Endpoint, qrSizePx int) Renderer {
	if qrSizePx <= 0 {
		qrSizePx = DefaultQRSizePx
	}
	return Renderer{qr: endpoint, qrSizePx: qrSizePx}
}

// Render is deterministic: the same document always yields the same bytes.
func (r Renderer) Render(doc credential.Document) (Artifact, error) {
	payload, err := doc.Payload()
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", doc.Target(), err)
	}
	qrURL, err := r.qr.RequestURL(payload, r.qrSizePx)
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", doc.Target(), err)
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, cardView{
		Doc:        doc,
		FrontStyle: gradientStyle(doc.Theme.FrontGradient),
		BackStyle:  gradientStyle(doc.Theme.BackGradient),
		QRURL:      qrURL,
		QRSizePx:   r.qrSizePx,
	}); err != nil {
		return Artifact{}, fmt.Errorf("render %s: execute template: %w", doc.Target(), err)
	}

	sum := sha256.Sum256(buf.Bytes())
	return Artifact{
		DocumentType: doc.Type,
		Number:       doc.Number,
		Target:       doc.Target(),
		FileName:     doc.FileName,
		ContentType:  htmlContentType,
		Body:         buf.Bytes(),
		Payload:      payload,
		QRURL:        qrURL,
		Digest:       hex.EncodeToString(sum[:]),
	}, nil
}

type cardView struct {
	Doc        credential.Document
	FrontStyle template.CSS
	BackStyle  template.CSS
	QRURL      string
	QRSizePx   int
}

// Gradient stops come from the fixed theme table, never from records.
func gradientStyle(stops string) template.CSS {
	return template.CSS("background: linear-gradient(" + gradientAngleCSS + ", " + stops + ");")
}

var cardTemplate = template.Must(template.New("card").Parse(cardHTML))

const cardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Doc.Title}} - {{.Doc.Number}}</title>
  <style>
    @page { size: A4; margin: 12mm; }
    body { font-family: 'Noto Sans Bengali', 'Helvetica Neue', Arial, sans-serif; margin: 0; color: #ffffff; }
    .face { width: 85.6mm; min-height: 54mm; border-radius: 4mm; padding: 5mm; margin: 0 auto 8mm; box-sizing: border-box; page-break-inside: avoid; }
    .header { text-align: center; margin-bottom: 3mm; }
    .authority { font-size: 8pt; letter-spacing: 0.5pt; opacity: 0.85; }
    h1 { font-size: 12pt; margin: 1mm 0 0; }
    h2 { font-size: 8pt; margin: 0; font-weight: normal; opacity: 0.85; }
    .field { display: flex; justify-content: space-between; font-size: 8pt; padding: 0.6mm 0; border-bottom: 0.2mm solid rgba(255,255,255,0.25); }
    .label { opacity: 0.8; }
    .value { font-weight: 600; text-align: right; }
    .qr { text-align: center; margin-top: 3mm; }
    .qr img { background: #ffffff; padding: 1mm; border-radius: 1mm; }
    .footer { font-size: 6pt; text-align: center; margin-top: 2mm; opacity: 0.85; }
  </style>
</head>
<body>
  <section class="face front" style="{{.FrontStyle}}">
    <div class="header">
      <div class="authority">BANGLADESH ROAD TRANSPORT AUTHORITY</div>
      <h1>{{.Doc.Title}}</h1>
      {{- if .Doc.Subtitle}}
      <h2>{{.Doc.Subtitle}}</h2>
      {{- end}}
    </div>
    {{- range .Doc.FrontFields}}
    <div class="field"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{- end}}
  </section>
  <section class="face back" style="{{.BackStyle}}">
    <div class="header">
      <h1>{{.Doc.BackTitle}}</h1>
    </div>
    {{- range .Doc.BackFields}}
    <div class="field"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{- end}}
    <div class="qr"><img src="{{.QRURL}}" width="{{.QRSizePx}}" height="{{.QRSizePx}}" alt="Verification QR code" /></div>
    {{- range .Doc.Footer}}
    <div class="footer">{{.}}</div>
    {{- end}}
  </section>
</body>
</html>
`
