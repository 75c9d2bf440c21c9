package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/profileqa/internal/augment"
	"github.com/xxxsen/profileqa/internal/chunker"
	"github.com/xxxsen/profileqa/internal/index"
	"github.com/xxxsen/profileqa/internal/model"
	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
	"github.com/xxxsen/profileqa/internal/source"
)

// Retriever is the part of *index.Index the service depends on.
type Retriever interface {
	Ensure(ctx context.Context, chunks []model.Chunk) (bool, error)
	Rebuild(ctx context.Context, chunks []model.Chunk) error
	Query(ctx context.Context, text string, k int, d index.Diversity) ([]model.Chunk, error)
	StoreName() string
}

// Answerer turns an augmented context and a question into an answer.
type Answerer interface {
	Generate(ctx context.Context, contextText string, question string) (string, error)
	Stream(ctx context.Context, contextText string, question string, onDelta func(string) error) (string, error)
}

type QAServiceConfig struct {
	K                int
	// Diversity nil selects index.DefaultDiversity.
	Diversity        *index.Diversity
	MaxQuestionChars int
}

type snapshot struct {
	chunks  []model.Chunk
	builtAt int64
	reused  bool
}

type QAService struct {
	loader    source.Loader
	builder   *chunker.Builder
	retriever Retriever
	augmenter *augment.Augmenter
	answerer  Answerer
	cfg       QAServiceConfig
	diversity index.Diversity

	buildMu sync.Mutex
	current atomic.Pointer[snapshot]
}

func NewQAService(
	loader source.Loader,
	builder *chunker.Builder,
	retriever Retriever,
	augmenter *augment.Augmenter,
	answerer Answerer,
	cfg QAServiceConfig,
) *QAService {
	if builder == nil {
		builder = chunker.NewBuilder(nil, nil)
	}
	if augmenter == nil {
		augmenter = augment.New(nil)
	}
	if cfg.K <= 0 {
		cfg.K = 6
	}
	diversity := index.DefaultDiversity
	if cfg.Diversity != nil {
		diversity = *cfg.Diversity
	}
	return &QAService{
		loader:    loader,
		builder:   builder,
		retriever: retriever,
		augmenter: augmenter,
		answerer:  answerer,
		cfg:       cfg,
		diversity: diversity,
	}
}

func (s *QAService) loadChunks(ctx context.Context) ([]model.Chunk, error) {
	text, err := s.loader.Load(ctx)
	if err != nil {
		if !errors.Is(err, source.ErrSourceNotFound) {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		logutil.GetLogger(ctx).Warn("profile document not found, using empty context",
			zap.String("source", s.loader.Name()), zap.Error(err))
		text = ""
	}
	chunks := s.builder.BuildDocument(text)
	logutil.GetLogger(ctx).Info("profile chunked",
		zap.String("source", s.loader.Name()),
		zap.Int("chunks", len(chunks)),
		zap.Int("projects", countType(chunks, model.SectionIndividualProject)),
	)
	return chunks, nil
}

// Init builds the chunk set and makes sure the index matches it. Queries fail
// with ErrNotReady until Init succeeds.
func (s *QAService) Init(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	chunks, err := s.loadChunks(ctx)
	if err != nil {
		return err
	}
	reused, err := s.retriever.Ensure(ctx, chunks)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	s.current.Store(&snapshot{chunks: chunks, builtAt: time.Now().Unix(), reused: reused})
	return nil
}

// Reindex reloads the document and rebuilds the index. The previous chunk set
// keeps serving if anything fails.
func (s *QAService) Reindex(ctx context.Context) (int, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	chunks, err := s.loadChunks(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.retriever.Rebuild(ctx, chunks); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}
	s.current.Store(&snapshot{chunks: chunks, builtAt: time.Now().Unix()})
	return len(chunks), nil
}

func (s *QAService) validate(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", fmt.Errorf("question is required: %w", appErr.ErrInvalid)
	}
	if s.cfg.MaxQuestionChars > 0 && utf8.RuneCountInString(q) > s.cfg.MaxQuestionChars {
		return "", fmt.Errorf("question exceeds %d characters: %w", s.cfg.MaxQuestionChars, appErr.ErrInvalid)
	}
	return q, nil
}

func (s *QAService) retrieve(ctx context.Context, question string) (string, []model.Chunk, error) {
	if s.current.Load() == nil {
		return "", nil, appErr.ErrNotReady
	}
	q, err := s.validate(question)
	if err != nil {
		return "", nil, err
	}
	chunks, err := s.retriever.Query(ctx, q, s.cfg.K, s.diversity)
	if err != nil {
		return "", nil, err
	}
	return q, chunks, nil
}

func (s *QAService) Ask(ctx context.Context, question string) (*model.QueryResult, error) {
	q, chunks, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	answer, err := s.answerer.Generate(ctx, s.augmenter.Context(chunks), q)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &model.QueryResult{Question: q, Answer: answer, Sources: chunks}, nil
}

// AskStream behaves like Ask but hands answer fragments to onDelta as they arrive.
func (s *QAService) AskStream(ctx context.Context, question string, onDelta func(string) error) (*model.QueryResult, error) {
	q, chunks, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	answer, err := s.answerer.Stream(ctx, s.augmenter.Context(chunks), q, onDelta)
	if err != nil {
		return nil, fmt.Errorf("stream answer: %w", err)
	}
	return &model.QueryResult{Question: q, Answer: answer, Sources: chunks}, nil
}

func (s *QAService) Status() model.IndexStatus {
	st := model.IndexStatus{Store: s.retriever.StoreName()}
	snap := s.current.Load()
	if snap == nil {
		return st
	}
	st.Ready = true
	st.ChunkCount = len(snap.chunks)
	st.BuiltAt = snap.builtAt
	st.Reused = snap.reused
	return st
}

// Chunks returns the chunk set currently served.
func (s *QAService) Chunks() []model.Chunk {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.chunks
}

func countType(chunks []model.Chunk, t model.SectionType) int {
	n := 0
	for _, c := range chunks {
		if c.SectionType == t {
			n++
		}
	}
	return n
}
