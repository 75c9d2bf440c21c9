package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSynthesizerRender(t *testing.T) {
	s, err := NewSynthesizer(&fakeGenerator{answer: "x"}, SynthesizerConfig{Template: "C={context}|Q={question}"})
	require.NoError(t, err)
	require.Equal(t, "C=has {question} inside|Q=why?", s.Render("has {question} inside", "why?"))
}

func TestSynthesizerGenerate(t *testing.T) {
	gen := &fakeGenerator{answer: "  Jane builds widgets.  "}
	s, err := NewSynthesizer(gen, SynthesizerConfig{Template: "{context}\n{question}", Timeout: 5})
	require.NoError(t, err)
	out, err := s.Generate(context.Background(), "ctx", "q")
	require.NoError(t, err)
	require.Equal(t, "Jane builds widgets.", out)
	require.Equal(t, "ctx\nq", gen.prompt)
}

func TestSynthesizerEmptyAnswer(t *testing.T) {
	s, err := NewSynthesizer(&fakeGenerator{answer: "   "}, SynthesizerConfig{Template: "{context}{question}"})
	require.NoError(t, err)
	_, err = s.Generate(context.Background(), "", "q")
	require.Error(t, err)
}

func TestSynthesizerStream(t *testing.T) {
	gen := &fakeStreamGenerator{parts: []string{"a", "b", "c"}}
	s, err := NewSynthesizer(gen, SynthesizerConfig{Template: "{context}{question}"})
	require.NoError(t, err)
	var parts []string
	out, err := s.Stream(context.Background(), "c", "q", func(d string) error {
		parts = append(parts, d)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "abc", out)
	require.Equal(t, []string{"a", "b", "c"}, parts)

	plain, err := s.WithTemplate("plain {context} {question}")
	require.NoError(t, err)
	require.Equal(t, "plain c q", plain.Render("c", "q"))
}

func TestSynthesizerValidation(t *testing.T) {
	_, err := NewSynthesizer(nil, SynthesizerConfig{Template: "{context}{question}"})
	require.Error(t, err)
	_, err = NewSynthesizer(&fakeGenerator{}, SynthesizerConfig{Template: "{context}"})
	require.Error(t, err)
}
