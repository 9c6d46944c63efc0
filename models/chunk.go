package models

// DocumentChunk is the unit of retrieval: a bounded-size slice of a source
// document's text with fixed overlap to its neighbors.
type DocumentChunk struct {
	ChunkID string `json:"chunk_id"`
	Text    string `json:"text"`
	Source  string `json:"source"` // file name or URL the chunk came from
	Order   int    `json:"order"`
}

// ScoredChunk pairs a chunk with its distance to a query. Distance is
// squared L2 over unit vectors: lower is closer.
type ScoredChunk struct {
	Chunk    DocumentChunk `json:"chunk"`
	Distance float64       `json:"distance"`
}
