package api

import (
	"fmt"
	"sync"

	"github.com/voxelflow/posemb/internal/posemb"
)

// EmbedderProvider resolves a variant name to a ready generator.
type EmbedderProvider interface {
	WithEmbedder(variant string, fn func(variant string, emb posemb.Embedder) error) error
}

// CachedEmbedderProvider constructs embedders from a base configuration on
// first use and caches them. Generators are stateless after construction
// (learnable tables are only mutated by an external optimizer, never by
// Generate), so one instance serves all requests.
type CachedEmbedderProvider struct {
	base posemb.Config

	mu    sync.Mutex
	cache map[string]posemb.Embedder
}

func NewCachedEmbedderProvider(base posemb.Config) *CachedEmbedderProvider {
	return &CachedEmbedderProvider{
		base:  base,
		cache: make(map[string]posemb.Embedder),
	}
}

// Default returns the variant served when a request names none.
func (p *CachedEmbedderProvider) Default() string { return p.base.Variant }

func (p *CachedEmbedderProvider) WithEmbedder(variant string, fn func(string, posemb.Embedder) error) error {
	if variant == "" {
		variant = p.base.Variant
	}
	if variant == "" {
		return newInvalidRequest("no variant requested and no default configured")
	}
	emb, err := p.embedder(variant)
	if err != nil {
		return err
	}
	return fn(variant, emb)
}

func (p *CachedEmbedderProvider) embedder(variant string) (posemb.Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if emb, ok := p.cache[variant]; ok {
		return emb, nil
	}
	cfg := p.base
	cfg.Variant = variant
	emb, err := posemb.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct %q: %w", variant, err)
	}
	p.cache[variant] = emb
	return emb, nil
}
