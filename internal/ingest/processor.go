package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"college-helpdesk-backend/internal/vectorindex"
	"college-helpdesk-backend/models"
)

// Processor turns raw documents into chunks and feeds the vector index.
type Processor struct {
	index    *vectorindex.Index
	splitter textsplitter.RecursiveCharacter
}

func NewProcessor(index *vectorindex.Index, chunkSize, chunkOverlap int) *Processor {
	return &Processor{
		index: index,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

// ProcessFiles extracts, splits, and indexes the given documents. When
// replace is true the index is rebuilt from these documents alone;
// otherwise the chunks are appended. Returns the number of chunks indexed.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string, replace bool) (int, error) {
	start := time.Now()
	var chunks []models.DocumentChunk

	for _, path := range paths {
		text, err := LoadFile(path)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, p.split(text, sourceName(path))...)
	}

	if len(chunks) == 0 {
		return 0, errors.New("no extractable text in documents")
	}

	if err := p.index.Upsert(ctx, chunks, replace); err != nil {
		return 0, err
	}

	slog.Info("documents indexed",
		"files", len(paths),
		"chunks", len(chunks),
		"replace", replace,
		"duration", time.Since(start).String())
	return len(chunks), nil
}

// ProcessURL fetches a single page and appends its chunks to the index.
func (p *Processor) ProcessURL(ctx context.Context, url string, timeout time.Duration) (int, error) {
	text, err := FetchURL(url, timeout)
	if err != nil {
		return 0, err
	}

	chunks := p.split(text, url)
	if len(chunks) == 0 {
		return 0, errors.New("no extractable text on page")
	}

	if err := p.index.Upsert(ctx, chunks, false); err != nil {
		return 0, err
	}

	slog.Info("url indexed", "url", url, "chunks", len(chunks))
	return len(chunks), nil
}

func (p *Processor) split(text, source string) []models.DocumentChunk {
	parts, err := p.splitter.SplitText(text)
	if err != nil {
		// RecursiveCharacter only errors on invalid options; treat the
		// whole text as a single chunk if it ever does.
		parts = []string{text}
	}

	var chunks []models.DocumentChunk
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, models.DocumentChunk{
			ChunkID: uuid.New().String(),
			Text:    part,
			Source:  source,
			Order:   i,
		})
	}
	return chunks
}

func sourceName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
