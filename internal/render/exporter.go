package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/roadauthority/internal/credential"
)

// ErrExportInProgress rejects a second export of a target that has not yet
// returned to Idle.
var ErrExportInProgress = errors.New("export already in progress")

type State string

const (
	Idle      State = "idle"
	Exporting State = "exporting"
	Completed State = "completed"
	Failed    State = "failed"
)

// DefaultResetDelay lets the surface finish receiving content before the
// target is released.
const DefaultResetDelay = 500 * time.Millisecond

// Scheduler runs f once after d. time.AfterFunc satisfies it through
// TimerScheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// Observer receives one call per finished export.
type Observer interface {
	ObserveExport(documentType string, state State, d time.Duration)
}

type Outcome struct {
	ExportID     string                  `json:"exportId"`
	Target       string                  `json:"target"`
	DocumentType credential.DocumentType `json:"documentType"`
	Number       string                  `json:"number"`
	State        State                   `json:"state"`
	Location     string                  `json:"location"`
	ContentType  string                  `json:"contentType"`
	Digest       string                  `json:"digest"`
	QRURL        string                  `json:"qrUrl"`
	FinishedAt   time.Time               `json:"finishedAt"`
}

type ExporterOption func(*Exporter)

func WithScheduler(s Scheduler) ExporterOption { return func(e *Exporter) { e.scheduler = s } }

func WithResetDelay(d time.Duration) ExporterOption { return func(e *Exporter) { e.resetDelay = d } }

func WithAudit(rec AuditRecorder) ExporterOption { return func(e *Exporter) { e.audit = rec } }

func WithObserver(o Observer) ExporterOption { return func(e *Exporter) { e.observer = o } }

func WithLogger(l *slog.Logger) ExporterOption { return func(e *Exporter) { e.logger = l } }

func WithClock(now func() time.Time) ExporterOption { return func(e *Exporter) { e.now = now } }

// Exporter renders documents and hands them to a presentation surface. Each
// target moves Idle -> Exporting -> Completed|Failed and back to Idle after
// the reset delay, whatever the outcome.
type Exporter struct {
	renderer   Renderer
	surface    PresentationSurface
	scheduler  Scheduler
	resetDelay time.Duration
	audit      AuditRecorder
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	states map[string]State

	auditMu sync.Mutex
}

func NewExporter(renderer Renderer, surface PresentationSurface, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		renderer:   renderer,
		surface:    surface,
		scheduler:  TimerScheduler{},
		resetDelay: DefaultResetDelay,
		now:        time.Now,
		states:     map[string]State{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// State reports the export state of a target; unknown targets are Idle.
func (e *Exporter) State(target string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.states[target]; ok {
		return st
	}
	return Idle
}

// Export renders doc and presents it. The error wraps ErrExportInProgress,
// ErrPresentationUnavailable, or the document's encoding error.
func (e *Exporter) Export(ctx context.Context, doc credential.Document) (Outcome, error) {
	target := doc.Target()
	if err := e.acquire(target); err != nil {
		return Outcome{}, err
	}

	exportID := uuid.NewString()
	logger := e.logger.With("exportId", exportID, "target", target, "documentType", string(doc.Type))
	start := e.now()
	final := Failed
	var artifact Artifact
	defer func() {
		e.release(target, final)
		if e.observer != nil {
			e.observer.ObserveExport(string(doc.Type), final, e.now().Sub(start))
		}
		e.appendAudit(ctx, logger, exportID, doc, final, artifact.Digest)
	}()

	logger.Info("export started")
	artifact, err := e.renderer.Render(doc)
	if err != nil {
		logger.Error("render failed", "error", err)
		return Outcome{}, err
	}
	location, err := e.surface.Present(ctx, artifact)
	if err != nil {
		logger.Warn("presentation failed", "error", err)
		if !errors.Is(err, ErrPresentationUnavailable) {
			err = fmt.Errorf("%w: %v", ErrPresentationUnavailable, err)
		}
		return Outcome{}, fmt.Errorf("export %s: %w", target, err)
	}

	final = Completed
	logger.Info("export completed", "location", location, "digest", artifact.Digest)
	return Outcome{
		ExportID:     exportID,
		Target:       target,
		DocumentType: doc.Type,
		Number:       doc.Number,
		State:        Completed,
		Location:     location,
		ContentType:  artifact.ContentType,
		Digest:       artifact.Digest,
		QRURL:        artifact.QRURL,
		FinishedAt:   e.now().UTC(),
	}, nil
}

func (e *Exporter) acquire(target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.states[target]; ok && st != Idle {
		return fmt.Errorf("%w: %s is %s", ErrExportInProgress, target, st)
	}
	e.states[target] = Exporting
	return nil
}

// release records the terminal state and schedules the return to Idle.
func (e *Exporter) release(target string, final State) {
	e.mu.Lock()
	e.states[target] = final
	e.mu.Unlock()

	reset := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.states[target] == final {
			delete(e.states, target)
		}
	}
	if e.resetDelay <= 0 {
		reset()
		return
	}
	e.scheduler.AfterFunc(e.resetDelay, reset)
}

func (e *Exporter) appendAudit(ctx context.Context, logger *slog.Logger, exportID string, doc credential.Document, final State, digest string) {
	if e.audit == nil {
		return
	}
	e.auditMu.Lock()
	defer e.auditMu.Unlock()
	entry := AuditEntry{
		AuditID:      uuid.NewString(),
		ExportID:     exportID,
		CorrID:       CorrelationID(ctx),
		Target:       doc.Target(),
		DocumentType: string(doc.Type),
		Action:       "export." + string(final),
		Digest:       digest,
		Ts:           e.now().UTC(),
	}
	if _, err := HashChain(context.WithoutCancel(ctx), e.audit, entry); err != nil {
		logger.Warn("audit append failed", "error", err)
	}
}

type corrIDKey struct{}

// WithCorrelationID tags ctx so audit entries can be traced to a request.
func WithCorrelationID(ctx context.Context, corrID string) context.Context {
	return context.WithValue(ctx, corrIDKey{}, corrID)
}

func CorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(corrIDKey{}).(string)
	return v
}
