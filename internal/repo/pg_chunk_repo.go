package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/profileqa/internal/index"
)

// PGChunkRepo keeps the index in postgres and lets pgvector rank candidates.
type PGChunkRepo struct {
	db *sqlx.DB
}

func NewPGChunkRepo(db *sql.DB) *PGChunkRepo {
	return &PGChunkRepo{db: sqlx.NewDb(db, "postgres")}
}

type pgChunkRow struct {
	Position    int             `db:"position"`
	SectionType string          `db:"section_type"`
	Content     string          `db:"content"`
	CharCount   int             `db:"char_count"`
	HasURLs     bool            `db:"has_urls"`
	Metadata    string          `db:"metadata"`
	Embedding   pgvector.Vector `db:"embedding"`
	Score       float64         `db:"score"`
}

func (r *PGChunkRepo) Name() string {
	return DialectPostgres
}

func (r *PGChunkRepo) Replace(ctx context.Context, fingerprint string, records []index.Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableChunks); err != nil {
		return err
	}
	for _, rec := range records {
		meta, err := encodeMetadata(rec.Chunk.Metadata)
		if err != nil {
			return err
		}
		sqlStr, args, err := builder.BuildInsert(tableChunks, []map[string]interface{}{{
			"position":     rec.Position,
			"section_type": string(rec.Chunk.SectionType),
			"content":      rec.Chunk.Content,
			"char_count":   rec.Chunk.CharCount,
			"has_urls":     rec.Chunk.HasURLs,
			"metadata":     meta,
			"embedding":    pgvector.NewVector(rec.Vector),
		}})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, rebind(sqlStr), args...); err != nil {
			return err
		}
	}
	const upsertMeta = `
		INSERT INTO index_meta (meta_key, meta_value, mtime)
		VALUES ($1, $2, $3)
		ON CONFLICT (meta_key) DO UPDATE SET
			meta_value = EXCLUDED.meta_value,
			mtime = EXCLUDED.mtime
	`
	if _, err := tx.ExecContext(ctx, upsertMeta, metaFingerprint, fingerprint, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGChunkRepo) Fingerprint(ctx context.Context) (string, error) {
	sqlStr, args, err := builder.BuildSelect(tableMeta, map[string]interface{}{"meta_key": metaFingerprint}, []string{"meta_value"})
	if err != nil {
		return "", err
	}
	var value string
	if err := r.db.GetContext(ctx, &value, rebind(sqlStr), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *PGChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(1) FROM "+tableChunks); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PGChunkRepo) Search(ctx context.Context, vector []float32, limit int) ([]index.Candidate, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, nil
	}
	const query = `
		SELECT position, section_type, content, char_count, has_urls, metadata::text AS metadata, embedding,
			1 - (embedding <=> $1) AS score
		FROM index_chunks
		ORDER BY embedding <=> $1, position
		LIMIT $2
	`
	var rows []pgChunkRow
	if err := r.db.SelectContext(ctx, &rows, query, pgvector.NewVector(vector), limit); err != nil {
		return nil, err
	}
	out := make([]index.Candidate, 0, len(rows))
	for _, row := range rows {
		meta, err := decodeMetadata(row.Metadata)
		if err != nil {
			return nil, err
		}
		rec := toRecord(row.Position, row.SectionType, row.Content, row.CharCount, row.HasURLs, meta, row.Embedding.Slice())
		out = append(out, index.Candidate{Record: rec, Score: row.Score})
	}
	return out, nil
}
