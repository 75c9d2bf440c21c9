package embedcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls    int
	prepared int
	err      error
}

func (c *countingEmbedder) Embed(_ context.Context, text string, _ string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func (c *countingEmbedder) Prepare([]string) error {
	c.prepared++
	return nil
}

func TestLruCacheHit(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(next, 10, time.Minute)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	v1[0] = 99
	v2, err := e.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{5}, v2)
	require.Equal(t, 1, next.calls)

	_, err = e.Embed(ctx, "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
	require.Equal(t, "counting", e.ModelName())
}

func TestLruCachePurgedOnPrepare(t *testing.T) {
	next := &countingEmbedder{}
	e := WrapLruCacheToEmbedder(next, 10, time.Minute).(*lruEmbedder)
	ctx := context.Background()

	_, err := e.Embed(ctx, "hello", "")
	require.NoError(t, err)
	require.Equal(t, 1, e.Len())
	require.NoError(t, e.Prepare([]string{"a"}))
	require.Equal(t, 0, e.Len())
	require.Equal(t, 1, next.prepared)
}

func TestLruCacheErrorNotCached(t *testing.T) {
	next := &countingEmbedder{err: errors.New("boom")}
	e := WrapLruCacheToEmbedder(next, 10, time.Minute)
	_, err := e.Embed(context.Background(), "x", "")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "x", "")
	require.Error(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLruCacheDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Same(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
	require.Same(t, next, WrapLruCacheToEmbedder(next, 10, 0))
}
