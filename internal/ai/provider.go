package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

var ErrUnavailable = appErr.ErrUnavailable

type IAIProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// IStreamProvider is implemented by providers that can deliver an answer in fragments.
type IStreamProvider interface {
	Stream(ctx context.Context, model string, prompt string, onDelta func(string) error) error
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IStreamGenerator interface {
	IGenerator
	Stream(ctx context.Context, prompt string, onDelta func(string) error) error
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

// ICorpusPreparer is implemented by embedders that must see the whole corpus
// before they can embed anything.
type ICorpusPreparer interface {
	Prepare(corpus []string) error
}

type generator struct {
	provider IAIProvider
	model    string
}

func NewGenerator(p IAIProvider, model string) IStreamGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

func (g *generator) Stream(ctx context.Context, prompt string, onDelta func(string) error) error {
	if sp, ok := g.provider.(IStreamProvider); ok {
		return sp.Stream(ctx, g.model, prompt, onDelta)
	}
	res, err := g.provider.Generate(ctx, g.model, prompt)
	if err != nil {
		return err
	}
	return onDelta(res)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Prepare(corpus []string) error {
	if p, ok := e.provider.(ICorpusPreparer); ok {
		return p.Prepare(corpus)
	}
	return nil
}

// Stream streams from gen when it supports it and otherwise emits the whole
// answer as a single fragment.
func Stream(ctx context.Context, gen IGenerator, prompt string, onDelta func(string) error) error {
	if sg, ok := gen.(IStreamGenerator); ok {
		return sg.Stream(ctx, prompt, onDelta)
	}
	res, err := gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	return onDelta(res)
}

// Prepare hands the corpus to e if it needs one.
func Prepare(e IEmbedder, corpus []string) error {
	if p, ok := e.(ICorpusPreparer); ok {
		return p.Prepare(corpus)
	}
	return nil
}

type ProviderFactory func(args interface{}) (IAIProvider, error)
type EmbedProviderFactory func(args interface{}) (IEmbedProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedProviderFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IAIProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embed provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
