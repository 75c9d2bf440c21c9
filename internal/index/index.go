package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xxxsen/profileqa/internal/ai"
	"github.com/xxxsen/profileqa/internal/model"
	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
)

// Diversity controls the candidate pool and the relevance/diversity balance of a query.
type Diversity struct {
	FetchK int
	Lambda float64
}

var DefaultDiversity = Diversity{FetchK: 12, Lambda: 0.7}

type Config struct {
	// EmbedQPS throttles document embedding during a build. Zero means unlimited.
	EmbedQPS float64
}

type Index struct {
	store    Store
	embedder ai.IEmbedder
	limiter  *rate.Limiter

	// mu keeps queries away from a build in progress: a corpus-dependent
	// embedder changes its vector space during the build.
	mu      sync.RWMutex
	builtAt atomic.Int64
}

func New(store Store, embedder ai.IEmbedder, cfg Config) *Index {
	x := &Index{store: store, embedder: embedder}
	if cfg.EmbedQPS > 0 {
		x.limiter = rate.NewLimiter(rate.Limit(cfg.EmbedQPS), 1)
	}
	return x
}

// Fingerprint identifies a chunk set embedded by a given model.
func Fingerprint(modelName string, chunks []model.Chunk) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	for _, c := range chunks {
		h.Write([]byte(c.SectionType))
		h.Write([]byte{0})
		h.Write([]byte(c.Content))
		h.Write([]byte{0})
		keys := make([]string, 0, len(c.Metadata))
		for k := range c.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			h.Write([]byte{0x1f})
			h.Write([]byte(c.Metadata[k]))
			h.Write([]byte{0})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func corpusOf(chunks []model.Chunk) []string {
	corpus := make([]string, 0, len(chunks))
	for _, c := range chunks {
		corpus = append(corpus, c.Content)
	}
	return corpus
}

// Rebuild embeds chunks in order and replaces the stored set. On failure the
// previous set stays in place.
func (x *Index) Rebuild(ctx context.Context, chunks []model.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.rebuildLocked(ctx, chunks)
}

func (x *Index) rebuildLocked(ctx context.Context, chunks []model.Chunk) error {
	start := time.Now()
	if err := ai.Prepare(x.embedder, corpusOf(chunks)); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	records := make([]Record, 0, len(chunks))
	for i, c := range chunks {
		if x.limiter != nil {
			if err := x.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		vec, err := x.embedder.Embed(ctx, c.Content, ai.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		if len(records) > 0 && len(vec) != len(records[0].Vector) {
			return fmt.Errorf("embed chunk %d: %w: got %d dims, want %d",
				i, ErrDimensionMismatch, len(vec), len(records[0].Vector))
		}
		records = append(records, Record{Position: i, Chunk: c, Vector: vec})
	}
	fp := Fingerprint(x.embedder.ModelName(), chunks)
	if err := x.store.Replace(ctx, fp, records); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	x.builtAt.Store(time.Now().Unix())
	logutil.GetLogger(ctx).Info("index rebuilt",
		zap.String("store", x.store.Name()),
		zap.Int("chunks", len(records)),
		zap.Duration("cost", time.Since(start)),
	)
	return nil
}

// Ensure reuses the stored set when it was built from the same chunks with the
// same embedding model, and rebuilds otherwise.
func (x *Index) Ensure(ctx context.Context, chunks []model.Chunk) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	stored, err := x.store.Fingerprint(ctx)
	if err != nil {
		return false, fmt.Errorf("read index fingerprint: %w", err)
	}
	if stored != "" && stored == Fingerprint(x.embedder.ModelName(), chunks) {
		if err := ai.Prepare(x.embedder, corpusOf(chunks)); err != nil {
			return false, fmt.Errorf("prepare embedder: %w", err)
		}
		x.builtAt.Store(time.Now().Unix())
		logutil.GetLogger(ctx).Info("index reused", zap.String("store", x.store.Name()), zap.Int("chunks", len(chunks)))
		return true, nil
	}
	return false, x.rebuildLocked(ctx, chunks)
}

// Query returns up to k chunks chosen by MMR from the FetchK most relevant ones.
func (x *Index) Query(ctx context.Context, text string, k int, d Diversity) ([]model.Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", appErr.ErrInvalid)
	}
	if d.Lambda < 0 || d.Lambda > 1 {
		return nil, fmt.Errorf("lambda must be within [0, 1]: %w", appErr.ErrInvalid)
	}
	fetch := d.FetchK
	if fetch < k {
		fetch = k
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	vec, err := x.embedder.Embed(ctx, text, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	cands, err := x.store.Search(ctx, vec, fetch)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	picked := MMR(vec, cands, k, d.Lambda)
	out := make([]model.Chunk, 0, len(picked))
	for _, c := range picked {
		out = append(out, c.Chunk)
	}
	return out, nil
}

func (x *Index) Count(ctx context.Context) (int, error) {
	return x.store.Count(ctx)
}

func (x *Index) BuiltAt() int64 {
	return x.builtAt.Load()
}

func (x *Index) StoreName() string {
	return x.store.Name()
}
