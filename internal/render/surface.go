package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrPresentationUnavailable means the artifact could not be handed to the
// user. The export can be retried.
var ErrPresentationUnavailable = errors.New("presentation surface unavailable")

// PresentationSurface accepts an artifact for print or save and returns where
// the user can find it.
type PresentationSurface interface {
	Present(ctx context.Context, a Artifact) (string, error)
}

// SurfaceFunc adapts a function to PresentationSurface.
type SurfaceFunc func(ctx context.Context, a Artifact) (string, error)

func (f SurfaceFunc) Present(ctx context.Context, a Artifact) (string, error) {
	return f(ctx, a)
}

// StorageSurface stores the artifact and hands back a signed download URL.
// With a Printer set the stored object is a PDF, otherwise the HTML itself.
type StorageSurface struct {
	Storage Storage
	Printer Printer
	TTL     time.Duration
}

func (s StorageSurface) Present(ctx context.Context, a Artifact) (string, error) {
	if s.Storage == nil {
		return "", fmt.Errorf("%w: no storage configured", ErrPresentationUnavailable)
	}
	body, contentType, ext, err := printable(ctx, s.Printer, a)
	if err != nil {
		return "", err
	}
	key := ObjectKey(a, ext)
	if err := s.Storage.PutObject(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("%w: store %s: %v", ErrPresentationUnavailable, key, err)
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	u, err := s.Storage.GetSignedURL(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: sign %s: %v", ErrPresentationUnavailable, key, err)
	}
	return u, nil
}

// ObjectKey places artifacts by document type and content digest, so
// re-exporting an unchanged document overwrites the same object.
func ObjectKey(a Artifact, ext string) string {
	digest := a.Digest
	if len(digest) > 16 {
		digest = digest[:16]
	}
	return fmt.Sprintf("exports/%s/%s/%s%s", a.DocumentType, digest, a.FileName, ext)
}

// DirSurface writes the artifact into a local directory.
type DirSurface struct {
	Dir     string
	Printer Printer
}

func (d DirSurface) Present(ctx context.Context, a Artifact) (string, error) {
	if a.FileName == "" || a.FileName == "." || a.FileName == ".." || filepath.Base(a.FileName) != a.FileName {
		return "", fmt.Errorf("render: unsafe file name %q", a.FileName)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPresentationUnavailable, err)
	}
	body, _, ext, err := printable(ctx, d.Printer, a)
	if err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, a.FileName+ext)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPresentationUnavailable, err)
	}
	return path, nil
}

func printable(ctx context.Context, p Printer, a Artifact) ([]byte, string, string, error) {
	if p == nil {
		return a.Body, a.ContentType, ".html", nil
	}
	pdf, err := p.Print(ctx, a.Body)
	if err != nil {
		if !errors.Is(err, ErrPresentationUnavailable) {
			err = fmt.Errorf("%w: %v", ErrPresentationUnavailable, err)
		}
		return nil, "", "", err
	}
	return pdf, "application/pdf", ".pdf", nil
}
