package store

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache is the PolicyTextCache used when no database is configured.
type MemoryCache struct {
	c   *lru.Cache[string, PolicyText]
	now func() time.Time
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, PolicyText](size)
	if err != nil {
		return nil, fmt.Errorf("policy cache: %w", err)
	}
	return &MemoryCache{c: c, now: time.Now}, nil
}

func memKey(fileHash, engine, model string) string {
	return fileHash + "|" + engine + "|" + model
}

func (m *MemoryCache) Find(_ context.Context, fileHash, engine, model string, maxAge time.Duration) (PolicyText, error) {
	pt, ok := m.c.Get(memKey(fileHash, engine, model))
	if !ok {
		return PolicyText{}, ErrNotFound
	}
	if maxAge > 0 && m.now().Sub(pt.CreatedAt) > maxAge {
		m.c.Remove(memKey(fileHash, engine, model))
		return PolicyText{}, ErrNotFound
	}
	return pt, nil
}

func (m *MemoryCache) Upsert(_ context.Context, pt PolicyText) error {
	pt.CreatedAt = m.now()
	m.c.Add(memKey(pt.FileHash, pt.Engine, pt.Model), pt)
	return nil
}

func (m *MemoryCache) Len() int { return m.c.Len() }
