package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/profileqa/internal/ai"
	"github.com/xxxsen/profileqa/internal/augment"
	"github.com/xxxsen/profileqa/internal/index"
	"github.com/xxxsen/profileqa/internal/model"
	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
	"github.com/xxxsen/profileqa/internal/source"
)

const notFound = "I don't know, kindly rephrase your question."

const janeDoc = "Name: Jane Doe\nEmail: jane@x.com\n________________\nProject:\nName: Widget\nDescription: A widget.\nGitHub URL: https://github.com/x/widget"

type fakeLoader struct {
	text string
	err  error
}

func (f *fakeLoader) Name() string { return "fake" }

func (f *fakeLoader) Load(context.Context) (string, error) {
	return f.text, f.err
}

type fakeAnswerer struct {
	lastContext string
	err         error
	calls       int
}

func (f *fakeAnswerer) answer(contextText string) string {
	if strings.TrimSpace(contextText) == "" {
		return notFound
	}
	return "Jane built Widget."
}

func (f *fakeAnswerer) Generate(_ context.Context, contextText string, _ string) (string, error) {
	f.calls++
	f.lastContext = contextText
	if f.err != nil {
		return "", f.err
	}
	return f.answer(contextText), nil
}

func (f *fakeAnswerer) Stream(_ context.Context, contextText string, _ string, onDelta func(string) error) (string, error) {
	f.calls++
	f.lastContext = contextText
	if f.err != nil {
		return "", f.err
	}
	out := f.answer(contextText)
	for _, word := range strings.SplitAfter(out, " ") {
		if err := onDelta(word); err != nil {
			return "", err
		}
	}
	return out, nil
}

func newTestService(loader source.Loader, answerer Answerer, media []model.ProjectMedia) *QAService {
	idx := index.New(index.NewMemoryStore(), ai.NewEmbedder(ai.NewTFIDF(), "tfidf"), index.Config{})
	return NewQAService(loader, nil, idx, augment.New(media), answerer, QAServiceConfig{
		K:                6,
		MaxQuestionChars: 50,
	})
}

func TestAskBeforeInit(t *testing.T) {
	svc := newTestService(&fakeLoader{text: janeDoc}, &fakeAnswerer{}, nil)
	_, err := svc.Ask(context.Background(), "who?")
	require.True(t, errors.Is(err, appErr.ErrNotReady))
	require.False(t, svc.Status().Ready)
	require.Equal(t, "memory", svc.Status().Store)
}

func TestAskEndToEnd(t *testing.T) {
	answerer := &fakeAnswerer{}
	media := []model.ProjectMedia{{Key: "Widget", ImageURL: "https://img.example.com/w.png"}}
	svc := newTestService(&fakeLoader{text: janeDoc}, answerer, media)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	st := svc.Status()
	require.True(t, st.Ready)
	require.Equal(t, 3, st.ChunkCount)
	require.Len(t, svc.Chunks(), 3)

	res, err := svc.Ask(ctx, "  What has Jane built?  ")
	require.NoError(t, err)
	require.Equal(t, "What has Jane built?", res.Question)
	require.Equal(t, "Jane built Widget.", res.Answer)
	require.Len(t, res.Sources, 3)
	require.Contains(t, answerer.lastContext, "[IMAGE: https://img.example.com/w.png]")
	require.Contains(t, answerer.lastContext, "\n\n")

	again, err := svc.Ask(ctx, "What has Jane built?")
	require.NoError(t, err)
	require.Equal(t, res.Sources, again.Sources)
}

func TestAskEmptyDocument(t *testing.T) {
	answerer := &fakeAnswerer{}
	svc := newTestService(&fakeLoader{err: fmt.Errorf("gone: %w", source.ErrSourceNotFound)}, answerer, nil)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))
	require.Equal(t, 0, svc.Status().ChunkCount)

	res, err := svc.Ask(ctx, "Where does Jane work?")
	require.NoError(t, err)
	require.Empty(t, res.Sources)
	require.Equal(t, notFound, res.Answer)
	require.Equal(t, 1, answerer.calls)
}

func TestInitLoaderFailure(t *testing.T) {
	svc := newTestService(&fakeLoader{err: errors.New("permission denied")}, &fakeAnswerer{}, nil)
	require.Error(t, svc.Init(context.Background()))
	require.False(t, svc.Status().Ready)
}

func TestAskValidation(t *testing.T) {
	svc := newTestService(&fakeLoader{text: janeDoc}, &fakeAnswerer{}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	_, err := svc.Ask(ctx, "   ")
	require.True(t, errors.Is(err, appErr.ErrInvalid))
	_, err = svc.Ask(ctx, strings.Repeat("é", 51))
	require.True(t, errors.Is(err, appErr.ErrInvalid))
	_, err = svc.Ask(ctx, strings.Repeat("é", 50))
	require.NoError(t, err)
}

func TestAskAnswererFailure(t *testing.T) {
	boom := errors.New("llm down")
	svc := newTestService(&fakeLoader{text: janeDoc}, &fakeAnswerer{err: boom}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))
	_, err := svc.Ask(ctx, "anything")
	require.True(t, errors.Is(err, boom))
	_, err = svc.AskStream(ctx, "anything", func(string) error { return nil })
	require.True(t, errors.Is(err, boom))
}

func TestAskStream(t *testing.T) {
	svc := newTestService(&fakeLoader{text: janeDoc}, &fakeAnswerer{}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	var parts []string
	res, err := svc.AskStream(ctx, "What has Jane built?", func(d string) error {
		parts = append(parts, d)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, res.Answer, strings.Join(parts, ""))
	require.Greater(t, len(parts), 1)
}

func TestReindex(t *testing.T) {
	loader := &fakeLoader{text: janeDoc}
	svc := newTestService(loader, &fakeAnswerer{}, nil)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	loader.text = "Skills: Go and Python"
	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, svc.Status().ChunkCount)
	require.False(t, svc.Status().Reused)

	loader.err = errors.New("disk error")
	_, err = svc.Reindex(ctx)
	require.Error(t, err)
	require.Equal(t, 1, svc.Status().ChunkCount)
}

type recordingRetriever struct {
	k int
	d index.Diversity
}

func (r *recordingRetriever) Ensure(context.Context, []model.Chunk) (bool, error) { return false, nil }

func (r *recordingRetriever) Rebuild(context.Context, []model.Chunk) error { return nil }

func (r *recordingRetriever) Query(_ context.Context, _ string, k int, d index.Diversity) ([]model.Chunk, error) {
	r.k = k
	r.d = d
	return nil, nil
}

func (r *recordingRetriever) StoreName() string { return "recording" }

func TestDiversitySettings(t *testing.T) {
	tests := []struct {
		name string
		in   *index.Diversity
		want index.Diversity
	}{
		{"unset uses defaults", nil, index.DefaultDiversity},
		{"zero lambda kept", &index.Diversity{FetchK: 10, Lambda: 0}, index.Diversity{FetchK: 10, Lambda: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingRetriever{}
			svc := NewQAService(&fakeLoader{text: janeDoc}, nil, r, nil, &fakeAnswerer{}, QAServiceConfig{K: 3, Diversity: tt.in})
			require.NoError(t, svc.Init(context.Background()))
			_, err := svc.Ask(context.Background(), "who?")
			require.NoError(t, err)
			require.Equal(t, 3, r.k)
			require.Equal(t, tt.want, r.d)
		})
	}
}
