package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = float32(0.1)
)

// Invoker sends one stateless chat request to a reasoning service and returns
// the raw text of its reply. Implementations return ErrUnconfigured before
// touching the network when they have no credential.
type Invoker interface {
	Invoke(ctx context.Context, p Payload, model string, temperature float32) (string, error)
}

// Auditor runs the assemble → invoke → normalize pipeline. It keeps no state
// between calls.
type Auditor struct {
	inv         Invoker
	model       string
	temperature float32
	examples    []Example
	log         *zap.Logger
}

type Option func(*Auditor)

func WithModel(model string) Option {
	return func(a *Auditor) {
		if m := strings.TrimSpace(model); m != "" {
			a.model = m
		}
	}
}

func WithTemperature(t float32) Option {
	return func(a *Auditor) { a.temperature = t }
}

func WithExamples(ex []Example) Option {
	return func(a *Auditor) { a.examples = ex }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.log = l
		}
	}
}

func New(inv Invoker, opts ...Option) *Auditor {
	a := &Auditor{
		inv:         inv,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		examples:    DefaultExamples,
		log:         zap.L(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Auditor) Model() string {
	if a == nil {
		return ""
	}
	return a.model
}

// AuditClaim cross-checks bill text against the baseline and an optional
// insurer policy (uploadedText may be empty). Errors are one of ErrEmptyBill,
// ErrUnconfigured, ErrServiceUnavailable or ErrMalformedResponse.
func (a *Auditor) AuditClaim(ctx context.Context, billText, baselineText, uploadedText string) (Result, error) {
	if a == nil || a.inv == nil {
		return Result{}, ErrUnconfigured
	}
	if strings.TrimSpace(billText) == "" {
		return Result{}, ErrEmptyBill
	}

	p := Assemble(Input{
		BillText:       billText,
		BaselinePolicy: baselineText,
		UploadedPolicy: uploadedText,
		Examples:       a.examples,
	})

	log := a.log.With(zap.String("model", a.model))
	log.Info("audit request",
		zap.Int("bill_chars", len(billText)),
		zap.Bool("uploaded_policy", strings.TrimSpace(uploadedText) != ""),
	)

	start := time.Now()
	raw, err := a.inv.Invoke(ctx, p, a.model, a.temperature)
	if err != nil {
		if errors.Is(err, ErrUnconfigured) {
			return Result{}, err
		}
		log.Warn("audit invoke failed", zap.Error(err))
		return Result{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	res, err := Normalize(raw)
	if err != nil {
		log.Warn("audit response unparseable", zap.Error(err), zap.String("raw", preview(raw)))
		return Result{}, err
	}
	if res.Meta.Repaired {
		log.Debug("audit response repaired",
			zap.String("rows_key", res.Meta.RowsKey),
			zap.Int("skipped_rows", res.Meta.SkippedRows),
		)
	}
	res.Meta.Model = a.model

	log.Info("audit complete",
		zap.Int("rows", len(res.Rows)),
		zap.String("verdict", string(res.Eligibility.Verdict)),
		zap.Duration("took", time.Since(start)),
	)
	return res, nil
}
