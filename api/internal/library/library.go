package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/store"
	"mediaudit/api/internal/util"
)

// Extensions accepted as insurer policy documents.
var Extensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff"}

var ErrUnknownPolicy = errors.New("unknown insurer policy")

type Document struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Library lists insurer policy documents in a directory and extracts their
// text through the vision engine, caching by file digest.
type Library struct {
	dir    string
	cache  store.PolicyTextCache
	maxAge time.Duration
	log    *zap.Logger
}

func New(dir string, cache store.PolicyTextCache, maxAge time.Duration, log *zap.Logger) *Library {
	if log == nil {
		log = zap.L()
	}
	return &Library{dir: dir, cache: cache, maxAge: maxAge, log: log.Named("library")}
}

func (l *Library) Dir() string { return l.dir }

// List returns the policy documents sorted by name. A missing directory is an
// empty library.
func (l *Library) List() ([]Document, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	docs := []Document{}
	for _, e := range entries {
		if e.IsDir() || !accepted(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, Document{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	slices.SortFunc(docs, func(a, b Document) int { return strings.Compare(a.Name, b.Name) })
	return docs, nil
}

func accepted(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Text returns the extracted text of one policy document. Cache failures are
// logged and never fail the call.
func (l *Library) Text(ctx context.Context, name string, eng ocr.Engine) (string, error) {
	if name == "" || filepath.Base(name) != name || !accepted(name) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	if err != nil {
		return "", fmt.Errorf("library: read %s: %w", name, err)
	}
	if eng == nil {
		return ocr.Extract(ctx, nil, data, name)
	}

	hash := util.SHA256Hex(data)
	model := ocr.VisionModel(eng)
	log := l.log.With(zap.String("policy", name), zap.String("engine", eng.Name()), zap.String("model", model))

	if l.cache != nil {
		pt, err := l.cache.Find(ctx, hash, eng.Name(), model, l.maxAge)
		switch {
		case err == nil:
			log.Debug("policy text cache hit")
			return pt.Text, nil
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("policy text cache lookup failed", zap.Error(err))
		}
	}

	text, err := ocr.Extract(ctx, eng, data, name)
	if err != nil {
		return "", err
	}
	if l.cache != nil {
		pt := store.PolicyText{FileHash: hash, Engine: eng.Name(), Model: model, Filename: name, Text: text}
		if err := l.cache.Upsert(ctx, pt); err != nil {
			log.Warn("policy text cache write failed", zap.Error(err))
		}
	}
	log.Info("policy text extracted", zap.Int("chars", len(text)))
	return text, nil
}

// TextOrBaseline returns the policy text, or "" when name is empty or the
// document cannot be read. The audit then runs on the baseline only; the
// error is returned for display.
func (l *Library) TextOrBaseline(ctx context.Context, name string, eng ocr.Engine) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	text, err := l.Text(ctx, name, eng)
	if err != nil {
		l.log.Warn("insurer policy unavailable, using baseline only", zap.String("policy", name), zap.Error(err))
		return "", err
	}
	return text, nil
}

// Warm extracts every listed document, at most parallel at a time, so the
// first audit does not wait for the vision call.
func (l *Library) Warm(ctx context.Context, eng ocr.Engine, parallel int) error {
	docs, err := l.List()
	if err != nil {
		return err
	}
	if parallel <= 0 {
		parallel = 2
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, d := range docs {
		g.Go(func() error {
			if _, err := l.Text(gctx, d.Name, eng); err != nil {
				return fmt.Errorf("warm %s: %w", d.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
