// cardgen builds a credential document from a JSON record and writes the
// printable artifact to a directory.
//
//	cardgen --type vehicle_card --record vehicle.json --out ./cards [--pdf]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/yourorg/roadauthority/internal/credential"
	"github.com/yourorg/roadauthority/internal/qr"
	"github.com/yourorg/roadauthority/internal/render"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		docType    string
		recordPath string
		outDir     string
		qrBaseURL  string
		qrSize     int
		pdf        bool
		chromium   string
		pdfTimeout time.Duration
		verbose    bool
	)
	flagSet := pflag.NewFlagSet("cardgen", pflag.ContinueOnError)
	flagSet.StringVarP(&docType, "type", "t", "", "document type: license, vehicle_card or tax_token")
	flagSet.StringVarP(&recordPath, "record", "r", "", "JSON record file (- for stdin)")
	flagSet.StringVarP(&outDir, "out", "o", ".", "output directory")
	flagSet.StringVar(&qrBaseURL, "qr-base-url", qr.DefaultBaseURL, "QR image service endpoint")
	flagSet.IntVar(&qrSize, "qr-size", render.DefaultQRSizePx, "QR image size in pixels")
	flagSet.BoolVar(&pdf, "pdf", false, "print to PDF through headless Chromium")
	flagSet.StringVar(&chromium, "chromium", "", "Chromium executable (default: search PATH)")
	flagSet.DurationVar(&pdfTimeout, "pdf-timeout", 15*time.Second, "Chromium print timeout")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	t, err := credential.ParseDocumentType(docType)
	if err != nil {
		return fmt.Errorf("--type: %w", err)
	}
	if recordPath == "" {
		return errors.New("--record is required")
	}
	doc, err := loadDocument(t, recordPath)
	if err != nil {
		return err
	}

	surface := render.DirSurface{Dir: outDir}
	if pdf {
		surface.Printer = render.ChromiumPrinter{ExecPath: chromium, Timeout: pdfTimeout}
	}
	exporter := render.NewExporter(
		render.NewRenderer(qr.NewEndpoint(qrBaseURL), qrSize),
		surface,
		render.WithResetDelay(0),
		render.WithLogger(logger),
	)
	outcome, err := exporter.Export(context.Background(), doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %s -> %s\n", doc.Type, doc.Number, outcome.Location)
	return nil
}

func loadDocument(t credential.DocumentType, path string) (credential.Document, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return credential.Document{}, fmt.Errorf("read record: %w", err)
	}
	record, err := credential.NewRecord(t)
	if err != nil {
		return credential.Document{}, err
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return credential.Document{}, fmt.Errorf("decode %s record: %w", t, err)
	}
	return credential.Build(t, record)
}
