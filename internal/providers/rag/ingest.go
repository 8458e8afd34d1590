package rag

import (
	"context"
	"fmt"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// Ingestor loads documents into the knowledge base: chunk, embed, store.
type Ingestor struct {
	embedder core.Embedder
	repo     core.KnowledgeRepository
	cfg      ChunkerConfig
}

func NewIngestor(embedder core.Embedder, repo core.KnowledgeRepository) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		repo:     repo,
		cfg:      DefaultChunkerConfig(),
	}
}

// IngestDocument stores every chunk of the document under sourceID and
// returns how many chunks were written.
func (i *Ingestor) IngestDocument(ctx context.Context, sourceID, text string) (int, error) {
	chunks := ChunkText(text, i.cfg)
	if len(chunks) == 0 {
		return 0, nil
	}

	for _, chunk := range chunks {
		vector, err := i.embedder.EncodePassage(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", chunk.Index, err)
		}

		err = i.repo.SavePassage(ctx, core.StoredPassage{
			SourceID:  sourceID,
			Content:   chunk.Text,
			Embedding: vector,
		})
		if err != nil {
			return 0, fmt.Errorf("save chunk %d: %w", chunk.Index, err)
		}
	}

	log.FromCtx(ctx).Info().
		Str("source", sourceID).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	return len(chunks), nil
}
