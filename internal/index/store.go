package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/profileqa/internal/model"
)

// Record is one chunk together with its document embedding. Position is the
// chunk's place in the build order and breaks score ties.
type Record struct {
	Position int
	Chunk    model.Chunk
	Vector   []float32
}

type Candidate struct {
	Record
	Score float64
}

// Store persists the embedded chunk set. Replace must swap the whole set
// atomically: readers observe either the old records or the new ones.
type Store interface {
	Name() string
	Replace(ctx context.Context, fingerprint string, records []Record) error
	Fingerprint(ctx context.Context) (string, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, vector []float32, limit int) ([]Candidate, error)
}

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero
// vector. a and b must have the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankByCosine scores records against vector and returns the best limit of
// them, highest score first, earlier position first on ties. A record whose
// vector length differs from vector fails the whole ranking.
func RankByCosine(records []Record, vector []float32, limit int) ([]Candidate, error) {
	out := make([]Candidate, 0, len(records))
	for _, r := range records {
		if len(r.Vector) != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dims, chunk %d has %d",
				ErrDimensionMismatch, len(vector), r.Position, len(r.Vector))
		}
		out = append(out, Candidate{Record: r, Score: Cosine(vector, r.Vector)})
	}
	SortCandidates(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Position < cands[j].Position
	})
}
