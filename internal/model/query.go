package model

type QueryResult struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Sources  []Chunk `json:"sources"`
}

type IndexStatus struct {
	Ready      bool   `json:"ready"`
	ChunkCount int    `json:"chunk_count"`
	BuiltAt    int64  `json:"built_at"`
	Reused     bool   `json:"reused"`
	Store      string `json:"store"`
}
