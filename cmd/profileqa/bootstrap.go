package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/profileqa/internal/ai"
	"github.com/xxxsen/profileqa/internal/augment"
	"github.com/xxxsen/profileqa/internal/chunker"
	"github.com/xxxsen/profileqa/internal/config"
	"github.com/xxxsen/profileqa/internal/embedcache"
	"github.com/xxxsen/profileqa/internal/index"
	"github.com/xxxsen/profileqa/internal/repo"
	"github.com/xxxsen/profileqa/internal/service"
	"github.com/xxxsen/profileqa/internal/source"
)

type app struct {
	cfg         *config.Config
	qa          *service.QAService
	synthesizer *ai.Synthesizer
	retriever   *index.Index
	loader      source.Loader
	db          *sql.DB
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// withTemplate returns a service sharing the retriever but answering with tpl.
func (a *app) withTemplate(tpl string) (*service.QAService, error) {
	synth, err := a.synthesizer.WithTemplate(tpl)
	if err != nil {
		return nil, fmt.Errorf("init chat template: %w", err)
	}
	return service.NewQAService(
		a.loader,
		newBuilder(a.cfg),
		a.retriever,
		augment.New(a.cfg.ProjectMedia),
		synth,
		qaConfig(a.cfg),
	), nil
}

func providerName(pc config.ProviderConfig) string {
	if pc.Name != "" {
		return pc.Name
	}
	return pc.Provider
}

func buildGenerator(cfg *config.Config) (ai.IStreamGenerator, error) {
	entries := make([]ai.GeneratorEntry, 0, len(cfg.AI.Generators))
	for _, pc := range cfg.AI.Generators {
		p, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init generator %s: %w", providerName(pc), err)
		}
		entries = append(entries, ai.GeneratorEntry{Name: providerName(pc), Generator: ai.NewGenerator(p, pc.Model)})
	}
	gen := ai.NewGroupGenerator(entries)
	if gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	return gen, nil
}

func buildEmbedder(cfg *config.Config) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.AI.Embedders))
	for _, pc := range cfg.AI.Embedders {
		p, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedder %s: %w", providerName(pc), err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: providerName(pc), Embedder: ai.NewEmbedder(p, pc.Model)})
	}
	emb := ai.NewGroupEmbedder(entries)
	if emb == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	return embedcache.WrapLruCacheToEmbedder(emb, cfg.Index.EmbedCache.Size, time.Duration(cfg.Index.EmbedCache.TTLSeconds)*time.Second), nil
}

func buildStore(cfg *config.Config) (index.Store, *sql.DB, error) {
	switch cfg.Index.Type {
	case config.IndexTypeSQLite:
		db, err := repo.OpenSQLite(cfg.Index.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := repo.ApplyMigrations(db, repo.DialectSQLite); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return repo.NewSQLiteChunkRepo(db), db, nil
	case config.IndexTypePostgres:
		db, err := repo.OpenPostgres(cfg.Index.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := repo.ApplyMigrations(db, repo.DialectPostgres); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return repo.NewPGChunkRepo(db), db, nil
	default:
		return index.NewMemoryStore(), nil, nil
	}
}

func newBuilder(cfg *config.Config) *chunker.Builder {
	return chunker.NewBuilder(nil, chunker.NewExtractor(cfg.SkillVocabulary))
}

func qaConfig(cfg *config.Config) service.QAServiceConfig {
	qc := service.QAServiceConfig{
		K:                cfg.Retrieval.K,
		MaxQuestionChars: cfg.MaxQuestionChars,
	}
	if cfg.Retrieval.Lambda != nil {
		qc.Diversity = &index.Diversity{FetchK: cfg.Retrieval.FetchK, Lambda: *cfg.Retrieval.Lambda}
	}
	return qc
}

func buildApp(cfg *config.Config) (*app, error) {
	logger := logutil.GetLogger(context.Background())
	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	synth, err := ai.NewSynthesizer(gen, ai.SynthesizerConfig{Template: cfg.InstructionTemplate, Timeout: cfg.AI.Timeout})
	if err != nil {
		return nil, fmt.Errorf("init synthesizer: %w", err)
	}
	loader, err := source.New(cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("init profile source: %w", err)
	}
	store, db, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	retriever := index.New(store, embedder, index.Config{EmbedQPS: cfg.Index.EmbedQPS})
	qa := service.NewQAService(
		loader,
		newBuilder(cfg),
		retriever,
		augment.New(cfg.ProjectMedia),
		synth,
		qaConfig(cfg),
	)
	logger.Info("pipeline assembled",
		zap.String("source", loader.Name()),
		zap.String("store", store.Name()),
		zap.String("embedder", embedder.ModelName()),
		zap.Int("generators", len(cfg.AI.Generators)),
	)
	return &app{
		cfg:         cfg,
		qa:          qa,
		synthesizer: synth,
		retriever:   retriever,
		loader:      loader,
		db:          db,
	}, nil
}
