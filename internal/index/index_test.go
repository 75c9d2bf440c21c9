package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/profileqa/internal/ai"
	"github.com/xxxsen/profileqa/internal/model"
	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
)

// keywordEmbedder maps text onto one axis per keyword.
type keywordEmbedder struct {
	keywords []string
	calls    int
	failOn   string
}

func (k *keywordEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	k.calls++
	if k.failOn != "" && strings.Contains(text, k.failOn) {
		return nil, errors.New("embed failed")
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(k.keywords))
	for i, kw := range k.keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec, nil
}

func (k *keywordEmbedder) ModelName() string { return "keyword" }

func testChunks() []model.Chunk {
	return []model.Chunk{
		{Content: "Skills: Python, Go", SectionType: model.SectionSkills},
		{Content: "Education: BSc at State University", SectionType: model.SectionEducation},
		{Content: "Projects: Widget project in Go", SectionType: model.SectionProjects},
		{Content: "Project: Widget", SectionType: model.SectionIndividualProject},
	}
}

func newTestIndex() (*Index, *keywordEmbedder) {
	emb := &keywordEmbedder{keywords: []string{"go", "university", "widget", "python"}}
	return New(NewMemoryStore(), emb, Config{EmbedQPS: 1000}), emb
}

func TestRebuildAndQuery(t *testing.T) {
	x, _ := newTestIndex()
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()))
	count, err := x.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NotZero(t, x.BuiltAt())
	require.Equal(t, "memory", x.StoreName())

	got, err := x.Query(ctx, "which university", 1, DefaultDiversity)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.SectionEducation, got[0].SectionType)

	again, err := x.Query(ctx, "which university", 1, DefaultDiversity)
	require.NoError(t, err)
	require.Equal(t, got, again)

	all, err := x.Query(ctx, "widget", 6, DefaultDiversity)
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestRebuildReplacesOldEntries(t *testing.T) {
	x, _ := newTestIndex()
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()))
	require.NoError(t, x.Rebuild(ctx, testChunks()[:1]))
	got, err := x.Query(ctx, "university", 6, DefaultDiversity)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.SectionSkills, got[0].SectionType)
}

func TestRebuildFailureKeepsPrevious(t *testing.T) {
	x, emb := newTestIndex()
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()))
	emb.failOn = "Widget"
	require.Error(t, x.Rebuild(ctx, testChunks()[1:]))
	emb.failOn = ""
	count, err := x.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestEnsureReusesMatchingFingerprint(t *testing.T) {
	store := NewMemoryStore()
	emb := &keywordEmbedder{keywords: []string{"go"}}
	ctx := context.Background()

	first := New(store, emb, Config{})
	reused, err := first.Ensure(ctx, testChunks())
	require.NoError(t, err)
	require.False(t, reused)
	require.Equal(t, 4, emb.calls)

	second := New(store, emb, Config{})
	reused, err = second.Ensure(ctx, testChunks())
	require.NoError(t, err)
	require.True(t, reused)
	require.Equal(t, 4, emb.calls)

	changed := append(testChunks(), model.Chunk{Content: "extra", SectionType: model.SectionGeneral})
	reused, err = second.Ensure(ctx, changed)
	require.NoError(t, err)
	require.False(t, reused)
}

func TestQueryValidation(t *testing.T) {
	x, _ := newTestIndex()
	ctx := context.Background()
	_, err := x.Query(ctx, "q", 0, DefaultDiversity)
	require.True(t, errors.Is(err, appErr.ErrInvalid))
	_, err = x.Query(ctx, "q", 2, Diversity{FetchK: 4, Lambda: 2})
	require.True(t, errors.Is(err, appErr.ErrInvalid))
}

func TestQueryEmptyIndex(t *testing.T) {
	x, _ := newTestIndex()
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, nil))
	got, err := x.Query(ctx, "anything", 6, DefaultDiversity)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTFIDFIndexDeterministic(t *testing.T) {
	ctx := context.Background()
	run := func() []model.Chunk {
		x := New(NewMemoryStore(), ai.NewEmbedder(ai.NewTFIDF(), "tfidf"), Config{})
		require.NoError(t, x.Rebuild(ctx, testChunks()))
		got, err := x.Query(ctx, "widget project", 2, DefaultDiversity)
		require.NoError(t, err)
		return got
	}
	require.Equal(t, run(), run())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("m", testChunks())
	require.Equal(t, a, Fingerprint("m", testChunks()))
	require.NotEqual(t, a, Fingerprint("other", testChunks()))
	require.NotEqual(t, a, Fingerprint("m", testChunks()[1:]))

	withMeta := testChunks()
	withMeta[3].Metadata = map[string]string{model.MetaProjectName: "Widget", model.MetaGithubURL: "https://github.com/jane/widget"}
	b := Fingerprint("m", withMeta)
	require.NotEqual(t, a, b)

	changed := testChunks()
	changed[3].Metadata = map[string]string{model.MetaProjectName: "Widget", model.MetaGithubURL: "https://github.com/jane/widget2"}
	require.NotEqual(t, b, Fingerprint("m", changed))

	// key order of the map does not matter
	reordered := testChunks()
	reordered[3].Metadata = map[string]string{model.MetaGithubURL: "https://github.com/jane/widget", model.MetaProjectName: "Widget"}
	require.Equal(t, b, Fingerprint("m", reordered))
}

func TestEnsureRebuildsWhenMetadataChanges(t *testing.T) {
	x, emb := newTestIndex()
	ctx := context.Background()
	chunks := testChunks()
	chunks[3].Metadata = map[string]string{model.MetaGithubURL: "https://github.com/jane/widget"}
	require.NoError(t, x.Rebuild(ctx, chunks))

	chunks = testChunks()
	chunks[3].Metadata = map[string]string{model.MetaGithubURL: "https://github.com/jane/widget-v2"}
	calls := emb.calls
	reused, err := x.Ensure(ctx, chunks)
	require.NoError(t, err)
	require.False(t, reused)
	require.Equal(t, calls+len(chunks), emb.calls)
}

// switchEmbedder returns vectors of a different length once switched, the
// way a fallback to another embedding model would.
type switchEmbedder struct {
	keywordEmbedder
	switched bool
	switchOn string
}

func (s *switchEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if s.switchOn != "" && strings.Contains(text, s.switchOn) {
		s.switched = true
	}
	vec, err := s.keywordEmbedder.Embed(ctx, text, taskType)
	if err != nil || !s.switched {
		return vec, err
	}
	return append(vec, 0, 0), nil
}

func TestQueryRejectsForeignVectorSpace(t *testing.T) {
	emb := &switchEmbedder{keywordEmbedder: keywordEmbedder{keywords: []string{"go", "university", "widget", "python"}}}
	x := New(NewMemoryStore(), emb, Config{})
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()))

	emb.switched = true
	got, err := x.Query(ctx, "widget", 2, DefaultDiversity)
	require.ErrorIs(t, err, ErrDimensionMismatch)
	require.Empty(t, got)
}

func TestRebuildRejectsMixedVectorSpaces(t *testing.T) {
	emb := &switchEmbedder{keywordEmbedder: keywordEmbedder{keywords: []string{"go", "university", "widget", "python"}}}
	x := New(NewMemoryStore(), emb, Config{})
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()[:1]))

	emb.switchOn = "Projects:"
	err := x.Rebuild(ctx, testChunks())
	require.ErrorIs(t, err, ErrDimensionMismatch)
	count, err := x.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestQueryWithPinnedGroupEmbedder(t *testing.T) {
	primary := &keywordEmbedder{keywords: []string{"go", "university", "widget", "python"}}
	backup := &keywordEmbedder{keywords: []string{"widget", "go"}}
	group := ai.NewGroupEmbedder([]ai.EmbedderEntry{
		{Name: "primary", Embedder: primary},
		{Name: "backup", Embedder: backup},
	})
	x := New(NewMemoryStore(), group, Config{})
	ctx := context.Background()
	require.NoError(t, x.Rebuild(ctx, testChunks()))

	// the build member going down fails queries instead of mixing spaces
	primary.failOn = "widget"
	_, err := x.Query(ctx, "widget", 2, DefaultDiversity)
	require.Error(t, err)
	require.Zero(t, backup.calls)

	primary.failOn = ""
	got, err := x.Query(ctx, "widget", 1, DefaultDiversity)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, strings.ToLower(got[0].Content), "widget")
}
