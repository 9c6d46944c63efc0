package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"college-helpdesk-backend/internal/logger"
	"college-helpdesk-backend/models"
)

// ErrIndexUnavailable means nothing has been ingested yet, or the persisted
// index could not be loaded. Callers treat it as "nothing to search", never
// as a fatal error.
var ErrIndexUnavailable = errors.New("vector index unavailable")

const indexFileName = "index.json"

// Embedder turns text into vectors. Production uses the Gemini embedder;
// tests substitute a deterministic fake.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type entry struct {
	Chunk  models.DocumentChunk `json:"chunk"`
	Vector []float32            `json:"vector"`
}

type indexFile struct {
	Entries []entry `json:"entries"`
}

// Index is a brute-force similarity index persisted as a single JSON file
// under its directory. Vectors are L2-normalized on the way in, and search
// scores are squared Euclidean distance (lower is closer), so the usual
// relevance gate of 1.65 keeps its polarity.
type Index struct {
	mu       sync.RWMutex
	dir      string
	embedder Embedder
}

func New(dir string, embedder Embedder) *Index {
	return &Index{dir: dir, embedder: embedder}
}

func (ix *Index) path() string {
	return filepath.Join(ix.dir, indexFileName)
}

// load reads the persisted index. A missing or corrupt file is reported as
// absent, not as an error.
func (ix *Index) load() ([]entry, bool) {
	data, err := os.ReadFile(ix.path())
	if err != nil {
		return nil, false
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warn("Persisted index unreadable, treating as absent", "path", ix.path(), "error", err.Error())
		return nil, false
	}
	return f.Entries, true
}

func (ix *Index) persist(entries []entry) error {
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	data, err := json.Marshal(indexFile{Entries: entries})
	if err != nil {
		return err
	}
	tmp := ix.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, ix.path())
}

// Loaded reports whether a persisted index currently exists and is readable.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.load()
	return ok
}

// Upsert embeds the chunks and writes them into the index. With replace set,
// or when no index exists on disk, the index is rebuilt from only these
// chunks; otherwise they are appended to the existing entries.
func (ix *Index) Upsert(ctx context.Context, chunks []models.DocumentChunk, replace bool) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to index")
	}
	if ix.embedder == nil {
		return errors.New("embeddings client not configured")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	fresh := make([]entry, len(chunks))
	for i := range chunks {
		fresh[i] = entry{Chunk: chunks[i], Vector: normalize(vectors[i])}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	var entries []entry
	if !replace {
		if existing, ok := ix.load(); ok {
			entries = existing
		}
	}
	entries = append(entries, fresh...)
	return ix.persist(entries)
}

// Search returns up to k entries nearest to the query, ascending by
// distance. ErrIndexUnavailable when nothing is ingested.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = 10
	}
	if ix.embedder == nil {
		return nil, errors.New("embeddings client not configured")
	}

	qvec, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	qvec = normalize(qvec)

	ix.mu.RLock()
	entries, ok := ix.load()
	ix.mu.RUnlock()
	if !ok || len(entries) == 0 {
		return nil, ErrIndexUnavailable
	}

	results := make([]models.ScoredChunk, len(entries))
	for i, e := range entries {
		results[i] = models.ScoredChunk{
			Chunk:    e.Chunk,
			Distance: squaredL2(qvec, e.Vector),
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Reset deletes the persisted index entirely.
func (ix *Index) Reset() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := os.RemoveAll(ix.dir); err != nil {
		return fmt.Errorf("failed to remove index directory: %w", err)
	}
	return nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func squaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
