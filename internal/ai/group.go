package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

type groupGenerator struct {
	items []GeneratorEntry
}

// NewGroupGenerator tries each entry once, in order, until one succeeds.
func NewGroupGenerator(items []GeneratorEntry) IStreamGenerator {
	if len(items) == 0 {
		return nil
	}
	return &groupGenerator{items: items}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		res, err := item.Generator.Generate(ctx, prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("generator failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("generator not configured")
	}
	return "", lastErr
}

// Stream falls through to the next entry only while nothing has been emitted.
func (g *groupGenerator) Stream(ctx context.Context, prompt string, onDelta func(string) error) error {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		emitted := false
		err := Stream(ctx, item.Generator, prompt, func(delta string) error {
			emitted = true
			return onDelta(delta)
		})
		if err == nil {
			return nil
		}
		if emitted {
			return err
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("stream generator failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return fmt.Errorf("generator not configured")
	}
	return lastErr
}

// groupEmbedder falls back across members only while building the document
// set. The first member that embeds a document is pinned until the next
// Prepare, and every later call goes to it alone, so one index never mixes
// vector spaces. Queries never fall back: they use the pinned member, or the
// first member when nothing is pinned yet.
type groupEmbedder struct {
	items []EmbedderEntry

	mu     sync.Mutex
	pinned int
}

func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	active := make([]EmbedderEntry, 0, len(items))
	for _, item := range items {
		if item.Embedder != nil {
			active = append(active, item)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return &groupEmbedder{items: active, pinned: -1}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	g.mu.Lock()
	pinned := g.pinned
	g.mu.Unlock()
	if pinned >= 0 {
		return g.embedWith(ctx, pinned, text, taskType)
	}
	if taskType != TaskRetrievalDocument {
		return g.embedWith(ctx, 0, text, taskType)
	}
	var lastErr error
	for i, item := range g.items {
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			g.pin(i)
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	return nil, lastErr
}

func (g *groupEmbedder) embedWith(ctx context.Context, i int, text, taskType string) ([]float32, error) {
	item := g.items[i]
	res, err := item.Embedder.Embed(ctx, text, taskType)
	if err != nil {
		return nil, fmt.Errorf("embedder %s: %w", item.Name, err)
	}
	return res, nil
}

func (g *groupEmbedder) pin(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pinned < 0 {
		g.pinned = i
	}
}

func (g *groupEmbedder) Prepare(corpus []string) error {
	g.mu.Lock()
	g.pinned = -1
	g.mu.Unlock()
	for _, item := range g.items {
		if err := Prepare(item.Embedder, corpus); err != nil {
			return fmt.Errorf("prepare embedder %s: %w", item.Name, err)
		}
	}
	return nil
}

// ModelName names the member whose vector space is in use: the pinned one,
// or the first member before anything is pinned.
func (g *groupEmbedder) ModelName() string {
	g.mu.Lock()
	i := g.pinned
	g.mu.Unlock()
	if i < 0 {
		i = 0
	}
	item := g.items[i]
	if model := item.Embedder.ModelName(); model != "" {
		return model
	}
	return item.Name
}
