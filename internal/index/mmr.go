package index

// MMR picks k candidates by maximal marginal relevance. Each step takes the
// candidate maximising lambda*sim(query) - (1-lambda)*max sim(selected).
// Ties go to the candidate listed first.
func MMR(query []float32, cands []Candidate, k int, lambda float64) []Candidate {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	if k > len(cands) {
		k = len(cands)
	}
	relevance := make([]float64, len(cands))
	for i, c := range cands {
		relevance[i] = Cosine(query, c.Vector)
	}
	// redundancy[i] is the highest similarity of candidate i to anything selected so far.
	redundancy := make([]float64, len(cands))
	used := make([]bool, len(cands))
	out := make([]Candidate, 0, k)
	for len(out) < k {
		best := -1
		bestScore := 0.0
		for i := range cands {
			if used[i] {
				continue
			}
			score := lambda * relevance[i]
			if len(out) > 0 {
				score -= (1 - lambda) * redundancy[i]
			}
			if best < 0 || score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		out = append(out, cands[best])
		for i := range cands {
			if used[i] {
				continue
			}
			if sim := Cosine(cands[i].Vector, cands[best].Vector); sim > redundancy[i] || len(out) == 1 {
				redundancy[i] = sim
			}
		}
	}
	return out
}
