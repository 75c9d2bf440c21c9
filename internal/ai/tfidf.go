package ai

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var tfidfToken = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

var tfidfStopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "does", "do", "has", "have",
	} {
		tfidfStopwords[w] = struct{}{}
	}
	RegisterEmbed("tfidf", createTFIDFFactory)
}

// tfidfProvider is a local embedder. Prepare must be called with the corpus
// before Embed; the vocabulary is rebuilt on every Prepare.
type tfidfProvider struct {
	mu         sync.RWMutex
	vocabulary map[string]int
	idf        []float64
	prepared   bool
}

func NewTFIDF() IEmbedProvider {
	return &tfidfProvider{}
}

func (p *tfidfProvider) Name() string {
	return "tfidf"
}

func (p *tfidfProvider) Prepare(corpus []string) error {
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocabulary[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.vocabulary = vocabulary
	p.idf = idf
	p.prepared = true
	return nil
}

func (p *tfidfProvider) Embed(_ context.Context, _ string, text string, _ string) ([]float32, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.prepared {
		return nil, fmt.Errorf("tfidf embedder not prepared")
	}
	vec := make([]float32, len(p.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := p.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	weights := make([]float64, len(p.idf))
	norm := 0.0
	for idx, count := range tf {
		w := float64(count) / float64(total) * p.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i, w := range weights {
		if w != 0 {
			vec[i] = float32(w / norm)
		}
	}
	return vec, nil
}

func tokenize(text string) []string {
	raw := tfidfToken.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := tfidfStopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func createTFIDFFactory(_ interface{}) (IEmbedProvider, error) {
	return NewTFIDF(), nil
}
