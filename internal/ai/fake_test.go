package ai

import (
	"context"
	"errors"
)

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.answer, f.err
}

type fakeStreamGenerator struct {
	fakeGenerator
	parts    []string
	failAt   int
	streamed int
}

func (f *fakeStreamGenerator) Stream(_ context.Context, prompt string, onDelta func(string) error) error {
	f.calls++
	f.prompt = prompt
	for i, p := range f.parts {
		if f.failAt > 0 && i == f.failAt {
			return errors.New("stream broke")
		}
		f.streamed++
		if err := onDelta(p); err != nil {
			return err
		}
	}
	return f.err
}

type fakeEmbedder struct {
	model    string
	vec      []float32
	err      error
	calls    int
	prepared [][]string
}

func (f *fakeEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

func (f *fakeEmbedder) ModelName() string { return f.model }

func (f *fakeEmbedder) Prepare(corpus []string) error {
	f.prepared = append(f.prepared, corpus)
	return nil
}
