package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/profileqa/internal/index"
)

// SQLiteChunkRepo stores the index in a local sqlite file. Search loads every
// row and ranks in process; a profile has tens of chunks.
type SQLiteChunkRepo struct {
	db *sql.DB
}

func NewSQLiteChunkRepo(db *sql.DB) *SQLiteChunkRepo {
	return &SQLiteChunkRepo{db: db}
}

func (r *SQLiteChunkRepo) Name() string {
	return DialectSQLite
}

func (r *SQLiteChunkRepo) Replace(ctx context.Context, fingerprint string, records []index.Record) error {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		meta, err := encodeMetadata(rec.Chunk.Metadata)
		if err != nil {
			return err
		}
		vec, err := json.Marshal(rec.Vector)
		if err != nil {
			return err
		}
		hasURLs := 0
		if rec.Chunk.HasURLs {
			hasURLs = 1
		}
		rows = append(rows, map[string]interface{}{
			"position":     rec.Position,
			"section_type": string(rec.Chunk.SectionType),
			"content":      rec.Chunk.Content,
			"char_count":   rec.Chunk.CharCount,
			"has_urls":     hasURLs,
			"metadata":     meta,
			"embedding":    string(vec),
		})
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableChunks); err != nil {
		return err
	}
	if len(rows) > 0 {
		sqlStr, args, err := builder.BuildInsert(tableChunks, rows)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	sqlStr, args, err := builder.BuildInsert(tableMeta, []map[string]interface{}{{
		"meta_key":   metaFingerprint,
		"meta_value": fingerprint,
		"mtime":      time.Now().Unix(),
	}})
	if err != nil {
		return err
	}
	sqlStr = strings.Replace(sqlStr, "INSERT INTO", "INSERT OR REPLACE INTO", 1)
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteChunkRepo) Fingerprint(ctx context.Context) (string, error) {
	sqlStr, args, err := builder.BuildSelect(tableMeta, map[string]interface{}{"meta_key": metaFingerprint}, []string{"meta_value"})
	if err != nil {
		return "", err
	}
	var value string
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *SQLiteChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+tableChunks).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SQLiteChunkRepo) Search(ctx context.Context, vector []float32, limit int) ([]index.Candidate, error) {
	records, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	return index.RankByCosine(records, vector, limit)
}

func (r *SQLiteChunkRepo) list(ctx context.Context) ([]index.Record, error) {
	where := map[string]interface{}{"_orderby": "position asc"}
	sqlStr, args, err := builder.BuildSelect(tableChunks, where, chunkColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []index.Record
	for rows.Next() {
		var (
			position, charCount, hasURLs int
			sectionType, content         string
			metaRaw, vecRaw              string
		)
		if err := rows.Scan(&position, &sectionType, &content, &charCount, &hasURLs, &metaRaw, &vecRaw); err != nil {
			return nil, err
		}
		meta, err := decodeMetadata(metaRaw)
		if err != nil {
			return nil, err
		}
		var vec []float32
		if err := json.Unmarshal([]byte(vecRaw), &vec); err != nil {
			return nil, err
		}
		out = append(out, toRecord(position, sectionType, content, charCount, hasURLs == 1, meta, vec))
	}
	return out, rows.Err()
}
