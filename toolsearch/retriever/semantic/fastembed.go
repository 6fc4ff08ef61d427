//go:build fastembed

package semantic

import (
	"context"
	"fmt"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedder wraps a local fastembed-go model as an Embedder, grounded
// on the same wrapper shape used elsewhere in the dependency pack for this
// library: a query embedding call per text, batching left to the caller.
type FastEmbedder struct {
	m *fastembed.FlagEmbedding
}

// NewFastEmbedder loads the default fastembed model (bge-small-en-v1.5,
// 384 dims). cacheDir, if non-empty, overrides where model weights are
// cached on disk.
func NewFastEmbedder(cacheDir string) (*FastEmbedder, error) {
	var init *fastembed.InitOptions
	if cacheDir != "" {
		init = &fastembed.InitOptions{CacheDir: cacheDir}
	}
	m, err := fastembed.NewFlagEmbedding(init)
	if err != nil {
		return nil, fmt.Errorf("semantic: load fastembed model: %w", err)
	}
	return &FastEmbedder{m: m}, nil
}

func (e *FastEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	vec, err := e.m.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed: %w", err)
	}
	return vec, nil
}

// Close releases the underlying model.
func (e *FastEmbedder) Close() error {
	if e.m != nil {
		e.m.Destroy()
	}
	return nil
}
