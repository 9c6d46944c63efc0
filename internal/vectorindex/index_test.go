package vectorindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"college-helpdesk-backend/models"
)

// fakeEmbedder maps known strings to fixed 3-dim vectors so distances
// are predictable.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) vec(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return []float32{1, 0, 0}
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vec(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.vec(text), nil
}

func newTestIndex(t *testing.T) (*Index, *fakeEmbedder) {
	t.Helper()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"close":    {1, 0, 0},
		"near":     {0.9, 0.1, 0},
		"far":      {0, 0, 1},
		"query":    {1, 0, 0},
		"opposite": {-1, 0, 0},
	}}
	return New(t.TempDir(), emb), emb
}

func chunk(id, text string) models.DocumentChunk {
	return models.DocumentChunk{ChunkID: id, Text: text, Source: "test.txt"}
}

func TestUpsertAndSearchOrdering(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	err := ix.Upsert(ctx, []models.DocumentChunk{
		chunk("1", "far"),
		chunk("2", "close"),
		chunk("3", "near"),
	}, true)
	require.NoError(t, err)

	hits, err := ix.Search(ctx, "query", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "close", hits[0].Chunk.Text)
	assert.Equal(t, "near", hits[1].Chunk.Text)
	assert.Equal(t, "far", hits[2].Chunk.Text)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
	assert.Less(t, hits[1].Distance, hits[2].Distance)
}

func TestDistanceRange(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{
		chunk("1", "close"),
		chunk("2", "opposite"),
	}, true))

	hits, err := ix.Search(ctx, "query", 2)
	require.NoError(t, err)

	// Squared L2 over unit vectors: identical -> 0, antipodal -> 4.
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 4.0, hits[1].Distance, 1e-6)
}

func TestSearchKCapped(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{chunk("1", "close")}, true))

	hits, err := ix.Search(ctx, "query", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestReplaceVersusAppend(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{chunk("1", "close")}, true))
	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{chunk("2", "far")}, false))

	hits, err := ix.Search(ctx, "query", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2, "append should keep existing entries")

	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{chunk("3", "near")}, true))
	hits, err = ix.Search(ctx, "query", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1, "replace should drop existing entries")
	assert.Equal(t, "near", hits[0].Chunk.Text)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, _ := newTestIndex(t)

	assert.False(t, ix.Loaded())
	_, err := ix.Search(context.Background(), "query", 5)
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
}

func TestReset(t *testing.T) {
	ix, _ := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Upsert(ctx, []models.DocumentChunk{chunk("1", "close")}, true))
	require.True(t, ix.Loaded())

	require.NoError(t, ix.Reset())
	assert.False(t, ix.Loaded())

	_, err := ix.Search(ctx, "query", 5)
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
}

func TestCorruptIndexFileTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{vectors: map[string][]float32{}}
	ix := New(dir, emb)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o644))

	assert.False(t, ix.Loaded())
	_, err := ix.Search(context.Background(), "query", 5)
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
}

func TestPersistenceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"close": {1, 0, 0},
		"query": {1, 0, 0},
	}}
	ctx := context.Background()

	first := New(dir, emb)
	require.NoError(t, first.Upsert(ctx, []models.DocumentChunk{chunk("1", "close")}, true))

	second := New(dir, emb)
	assert.True(t, second.Loaded())

	hits, err := second.Search(ctx, "query", 1)
	require.NoError(t, err)
	assert.Equal(t, "close", hits[0].Chunk.Text)
}

func TestNilEmbedder(t *testing.T) {
	ix := New(t.TempDir(), nil)
	ctx := context.Background()

	err := ix.Upsert(ctx, []models.DocumentChunk{chunk("1", "x")}, true)
	assert.Error(t, err)

	_, err = ix.Search(ctx, "query", 5)
	assert.Error(t, err)
}
