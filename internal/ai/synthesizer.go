package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type SynthesizerConfig struct {
	Template string
	Timeout  int
}

// Synthesizer renders the instruction template and asks the generator for an answer.
type Synthesizer struct {
	gen IGenerator
	cfg SynthesizerConfig
}

func NewSynthesizer(gen IGenerator, cfg SynthesizerConfig) (*Synthesizer, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator not configured")
	}
	if !strings.Contains(cfg.Template, "{context}") || !strings.Contains(cfg.Template, "{question}") {
		return nil, fmt.Errorf("template must contain {context} and {question}")
	}
	return &Synthesizer{gen: gen, cfg: cfg}, nil
}

// Render fills both slots in a single pass so that braces inside the context
// are never re-expanded.
func (s *Synthesizer) Render(contextText string, question string) string {
	return strings.NewReplacer("{context}", contextText, "{question}", question).Replace(s.cfg.Template)
}

// WithTemplate returns a copy of s that uses tpl.
func (s *Synthesizer) WithTemplate(tpl string) (*Synthesizer, error) {
	cfg := s.cfg
	cfg.Template = tpl
	return NewSynthesizer(s.gen, cfg)
}

func (s *Synthesizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(s.cfg.Timeout)*time.Second)
	}
	return ctx, func() {}
}

func (s *Synthesizer) Generate(ctx context.Context, contextText string, question string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.gen.Generate(ctx, s.Render(contextText, question))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

// Stream forwards fragments to onDelta and returns the concatenated answer.
func (s *Synthesizer) Stream(ctx context.Context, contextText string, question string, onDelta func(string) error) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var sb strings.Builder
	err := Stream(ctx, s.gen, s.Render(contextText, question), func(delta string) error {
		sb.WriteString(delta)
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}
