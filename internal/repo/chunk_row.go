package repo

import (
	"encoding/json"

	"github.com/xxxsen/profileqa/internal/index"
	"github.com/xxxsen/profileqa/internal/model"
)

const (
	tableChunks = "index_chunks"
	tableMeta   = "index_meta"

	metaFingerprint = "fingerprint"
)

var chunkColumns = []string{"position", "section_type", "content", "char_count", "has_urls", "metadata", "embedding"}

func encodeMetadata(meta map[string]string) (string, error) {
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	meta := map[string]string{}
	if raw == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func toRecord(position int, sectionType string, content string, charCount int, hasURLs bool, meta map[string]string, vec []float32) index.Record {
	return index.Record{
		Position: position,
		Chunk: model.Chunk{
			Content:     content,
			SectionType: model.SectionType(sectionType),
			CharCount:   charCount,
			HasURLs:     hasURLs,
			Metadata:    meta,
		},
		Vector: vec,
	}
}
