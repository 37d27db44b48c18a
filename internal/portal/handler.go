package portal

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/yourorg/roadauthority/internal/credential"
	"github.com/yourorg/roadauthority/internal/fee"
	"github.com/yourorg/roadauthority/internal/qr"
	"github.com/yourorg/roadauthority/internal/render"
)

// Service wires the fee schedule, document builder, renderer and exporter
// into HTTP handlers.
type Service struct {
	cfg      Config
	schedule *fee.Schedule
	qr       qr.Endpoint
	renderer render.Renderer
	exporter *render.Exporter
	storage  *render.InMemoryStorage
	audit    *render.MemoryAuditRecorder
	metrics  *Metrics
	limiter  *RateLimiter
	logger   *slog.Logger

	surface   render.PresentationSurface
	scheduler render.Scheduler
}

type Option func(*Service)

// WithSurface replaces the storage-backed presentation surface.
func WithSurface(s render.PresentationSurface) Option { return func(svc *Service) { svc.surface = s } }

func WithScheduler(s render.Scheduler) Option { return func(svc *Service) { svc.scheduler = s } }

func NewService(cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		cfg:       cfg,
		schedule:  fee.DefaultSchedule(),
		qr:        qr.NewEndpoint(cfg.QRBaseURL),
		storage:   render.NewInMemoryStorage(cfg.DownloadBaseURL, signingSecret(cfg.SigningSecret)),
		audit:     render.NewMemoryAuditRecorder(),
		metrics:   NewMetrics(),
		limiter:   NewRateLimiter(cfg.ExportRatePerMin, time.Minute),
		logger:    logger,
		scheduler: render.TimerScheduler{},
	}
	svc.renderer = render.NewRenderer(svc.qr, cfg.QRSizePx)
	svc.surface = render.StorageSurface{Storage: svc.storage, TTL: cfg.SignURLTTL}
	if cfg.PDFEnabled {
		svc.surface = render.StorageSurface{
			Storage: svc.storage,
			TTL:     cfg.SignURLTTL,
			Printer: render.ChromiumPrinter{ExecPath: cfg.PDFChromiumPath, Timeout: cfg.PDFTimeout},
		}
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.exporter = render.NewExporter(svc.renderer, svc.surface,
		render.WithScheduler(svc.scheduler),
		render.WithResetDelay(cfg.ExportResetDelay),
		render.WithAudit(svc.audit),
		render.WithObserver(svc.metrics),
		render.WithLogger(logger),
	)
	return svc
}

// A random secret means download links do not survive a restart, which is
// fine for in-memory storage.
func signingSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	id := uuid.New()
	return id[:]
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	CorrID    string `json:"corrId"`
	Retryable bool   `json:"retryable"`
}

type resolveRequest struct {
	Category  fee.Category  `json:"category"`
	Selection fee.Selection `json:"selection"`
}

type documentResponse struct {
	Document credential.Document `json:"document"`
	Payload  qr.Payload          `json:"payload"`
	QRURL    string              `json:"qrUrl"`
}

type verifyRequest struct {
	Payload qr.Payload `json:"payload"`
}

type verifyResponse struct {
	Valid bool              `json:"valid"`
	Claim *credential.Claim `json:"claim,omitempty"`
	Error string            `json:"error,omitempty"`
}

type exportStateResponse struct {
	Target string       `json:"target"`
	State  render.State `json:"state"`
}

type auditResponse struct {
	Entries    []render.AuditEntry `json:"entries"`
	ChainValid bool                `json:"chainValid"`
}

func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCategories matches GET /fees/categories
func (s *Service) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.schedule.Categories())
}

// ResolveFee matches POST /fees/resolve
func (s *Service) ResolveFee(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)

	var req resolveRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, corrID, "BAD_JSON", err.Error(), false)
		return
	}
	result, err := s.schedule.Resolve(req.Category, req.Selection)
	if err != nil {
		s.metrics.IncFeeResolution(string(req.Category), "rejected")
		logger.Warn("fee resolution rejected", "category", req.Category, "error", err)
		writeError(w, http.StatusBadRequest, corrID, "CONFIGURATION_ERROR", err.Error(), false)
		return
	}
	s.metrics.IncFeeResolution(string(req.Category), "resolved")
	writeJSON(w, http.StatusOK, result)
}

// BuildDocument matches POST /documents/{type}
func (s *Service) BuildDocument(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)
	doc, ok := s.buildFromRequest(w, r, corrID, logger)
	if !ok {
		return
	}
	payload, err := doc.Payload()
	if err != nil {
		s.writeDocumentError(w, corrID, logger, err)
		return
	}
	qrURL, err := s.qr.RequestURL(payload, s.cfg.QRSizePx)
	if err != nil {
		logger.Error("qr request url failed", "error", err)
		writeError(w, http.StatusInternalServerError, corrID, "INTERNAL_ERROR", "qr endpoint misconfigured", false)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Payload: payload, QRURL: qrURL})
}

// RenderDocument matches POST /documents/{type}/render and returns the
// printable HTML directly.
func (s *Service) RenderDocument(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)
	doc, ok := s.buildFromRequest(w, r, corrID, logger)
	if !ok {
		return
	}
	artifact, err := s.renderer.Render(doc)
	if err != nil {
		s.writeDocumentError(w, corrID, logger, err)
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("ETag", `"`+artifact.Digest+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Body)
}

// ExportDocument matches POST /documents/{type}/export
func (s *Service) ExportDocument(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)

	if ok, retryAfter := s.limiter.Allow(clientID(r)); !ok {
		w.Header().Set("Retry-After", formatRetryAfter(retryAfter))
		writeError(w, http.StatusTooManyRequests, corrID, "RATE_LIMITED", "too many export requests", true)
		return
	}
	doc, ok := s.buildFromRequest(w, r, corrID, logger)
	if !ok {
		return
	}
	ctx := render.WithCorrelationID(r.Context(), corrID)
	outcome, err := s.exporter.Export(ctx, doc)
	if err != nil {
		s.writeDocumentError(w, corrID, logger, err)
		return
	}
	w.Header().Set("Location", outcome.Location)
	writeJSON(w, http.StatusCreated, outcome)
}

// ExportState matches GET /documents/{type}/{number}/export
func (s *Service) ExportState(w http.ResponseWriter, r *http.Request) {
	corrID, _ := s.requestLogger(w, r)
	t, err := credential.ParseDocumentType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, corrID, "NOT_FOUND", err.Error(), false)
		return
	}
	target := credential.Document{Type: t, Number: chi.URLParam(r, "number")}.Target()
	writeJSON(w, http.StatusOK, exportStateResponse{Target: target, State: s.exporter.State(target)})
}

// Verify matches POST /verify: it reads a scanned QR payload back into the
// claim it makes.
func (s *Service) Verify(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)
	var req verifyRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, corrID, "BAD_JSON", err.Error(), false)
		return
	}
	claim, err := credential.ReadClaim(req.Payload)
	if err != nil {
		s.metrics.IncVerification("unrecognized")
		logger.Info("payload not recognized", "error", err)
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false, Error: err.Error()})
		return
	}
	s.metrics.IncVerification("recognized")
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, Claim: &claim})
}

// Download matches GET /downloads/* for links issued by the storage surface.
func (s *Service) Download(w http.ResponseWriter, r *http.Request) {
	corrID, logger := s.requestLogger(w, r)
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, corrID, "BAD_REQUEST", "malformed download path", false)
		return
	}
	q := r.URL.Query()
	if err := s.storage.Verify(key, q.Get("exp"), q.Get("sig")); err != nil {
		status := http.StatusForbidden
		if errors.Is(err, render.ErrURLExpired) {
			status = http.StatusGone
		}
		writeError(w, status, corrID, "FORBIDDEN", err.Error(), false)
		return
	}
	obj, err := s.storage.Get(r.Context(), key)
	if err != nil {
		logger.Warn("download missing", "key", key, "error", err)
		writeError(w, http.StatusNotFound, corrID, "NOT_FOUND", "artifact not found", false)
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(obj.Size))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.Body)
}

// ExportAudit matches GET /admin/exports/audit
func (s *Service) ExportAudit(w http.ResponseWriter, r *http.Request) {
	entries := s.audit.Entries()
	writeJSON(w, http.StatusOK, auditResponse{Entries: entries, ChainValid: render.VerifyChain(entries) == nil})
}

func (s *Service) buildFromRequest(w http.ResponseWriter, r *http.Request, corrID string, logger *slog.Logger) (credential.Document, bool) {
	t, err := credential.ParseDocumentType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusNotFound, corrID, "NOT_FOUND", err.Error(), false)
		return credential.Document{}, false
	}
	record, err := credential.NewRecord(t)
	if err != nil {
		writeError(w, http.StatusNotFound, corrID, "NOT_FOUND", err.Error(), false)
		return credential.Document{}, false
	}
	if err := s.decode(w, r, record); err != nil {
		writeError(w, http.StatusBadRequest, corrID, "BAD_JSON", err.Error(), false)
		return credential.Document{}, false
	}
	doc, err := credential.Build(t, record)
	if err != nil {
		s.writeDocumentError(w, corrID, logger, err)
		return credential.Document{}, false
	}
	return doc, true
}

func (s *Service) writeDocumentError(w http.ResponseWriter, corrID string, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, qr.ErrEncodingHazard):
		logger.Error("document payload is ambiguous", "error", err)
		writeError(w, http.StatusUnprocessableEntity, corrID, "ENCODING_HAZARD", err.Error(), false)
	case errors.Is(err, credential.ErrInvalidRecord):
		writeError(w, http.StatusBadRequest, corrID, "INVALID_RECORD", err.Error(), false)
	case errors.Is(err, render.ErrExportInProgress):
		writeError(w, http.StatusConflict, corrID, "EXPORT_IN_PROGRESS", err.Error(), true)
	case errors.Is(err, render.ErrPresentationUnavailable):
		writeError(w, http.StatusServiceUnavailable, corrID, "PRESENTATION_UNAVAILABLE", "document could not be delivered, try again", true)
	default:
		logger.Error("document request failed", "error", err)
		writeError(w, http.StatusInternalServerError, corrID, "INTERNAL_ERROR", "internal error", true)
	}
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, v any) error {
	limit := s.cfg.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Service) requestLogger(w http.ResponseWriter, r *http.Request) (string, *slog.Logger) {
	corrID := r.Header.Get("X-Correlation-Id")
	if corrID == "" {
		corrID = uuid.NewString()
	}
	w.Header().Set("X-Correlation-Id", corrID)
	return corrID, CorrelationLogger(s.logger, corrID, clientID(r))
}

// CorrelationLogger scopes a logger to one request.
func CorrelationLogger(logger *slog.Logger, corrID, client string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("corrId", corrID, "client", client)
}

func clientID(r *http.Request) string {
	if c := r.Header.Get("X-Client-Id"); c != "" {
		return c
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func formatRetryAfter(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func writeError(w http.ResponseWriter, status int, corrID, code, message string, retryable bool) {
	writeJSON(w, status, errorBody{Code: code, Message: message, CorrID: corrID, Retryable: retryable})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
