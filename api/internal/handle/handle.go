package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/library"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/policy"
)

const (
	DefaultTimeout = 180 * time.Second
	maxTimeout     = 10 * time.Minute

	// TimeoutHeader overrides DefaultTimeout for one request: "90s" or "90".
	TimeoutHeader = "X-Request-Timeout"
)

var errBadRequest = errors.New("bad request")

type Handle struct {
	engs        *ocr.Engines
	lib         *library.Library
	baseline    policy.Loaded
	auditLLM    string
	visionLLM   string
	temperature float32
	log         *zap.Logger
}

type Option func(*Handle)

func WithLibrary(l *library.Library) Option { return func(h *Handle) { h.lib = l } }

func WithBaseline(b policy.Loaded) Option { return func(h *Handle) { h.baseline = b } }

// WithDefaults sets the engines used when a request has no llm_name.
func WithDefaults(auditLLM, visionLLM string) Option {
	return func(h *Handle) {
		if auditLLM != "" {
			h.auditLLM = auditLLM
		}
		if visionLLM != "" {
			h.visionLLM = visionLLM
		}
	}
}

func WithTemperature(t float32) Option { return func(h *Handle) { h.temperature = t } }

func WithLogger(l *zap.Logger) Option {
	return func(h *Handle) {
		if l != nil {
			h.log = l
		}
	}
}

func New(engs *ocr.Engines, opts ...Option) *Handle {
	h := &Handle{
		engs:        engs,
		baseline:    policy.Default(),
		auditLLM:    "groq",
		visionLLM:   "gemini",
		temperature: audit.DefaultTemperature,
		log:         zap.L(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes registers every endpoint on a new mux wrapped in the request id
// middleware.
func (h *Handle) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/v1/policy", h.Policy)
	mux.HandleFunc("/v1/policies", h.Policies)
	mux.HandleFunc("/v1/extract", h.Extract)
	mux.HandleFunc("/v1/audit", h.Audit)
	mux.HandleFunc("/v1/export", h.Export)
	return h.RequestID(mux)
}

func (h *Handle) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handle) engine(name, def string) (ocr.Engine, error) {
	if strings.TrimSpace(name) == "" {
		name = def
	}
	eng, err := h.engs.GetEngine(name)
	if err != nil && !errors.Is(err, audit.ErrUnconfigured) {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return eng, err
}

func (h *Handle) auditor(eng ocr.Engine, log *zap.Logger) *audit.Auditor {
	return audit.New(eng,
		audit.WithModel(eng.GetModel()),
		audit.WithTemperature(h.temperature),
		audit.WithLogger(log.With(zap.String("engine", eng.Name()))),
	)
}

// requestContext applies the per-request timeout.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout(r.Header.Get(TimeoutHeader)))
}

func requestTimeout(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		n, err := strconv.Atoi(v)
		if err != nil {
			return DefaultTimeout
		}
		d = time.Duration(n) * time.Second
	}
	if d <= 0 {
		return DefaultTimeout
	}
	return min(d, maxTimeout)
}

func decodeJSON(r *http.Request, v any, limit int64) error {
	if r.Body == nil {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	body := http.MaxBytesReader(nil, r.Body, limit)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: bad json: %v", errBadRequest, err)
	}
	return nil
}

func postOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST only"})
		return false
	}
	return true
}

func getOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "GET only"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, audit.ErrEmptyBill):
		return http.StatusBadRequest
	case errors.Is(err, audit.ErrUnconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, audit.ErrServiceUnavailable),
		errors.Is(err, audit.ErrMalformedResponse),
		errors.Is(err, audit.ErrExtractionFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handle) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	log := requestLogger(r, h.log)
	if code >= 500 {
		log.Warn("request failed", zap.Int("status", code), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: err.Error(), RequestID: RequestIDFrom(r.Context())})
}
