package rag

import (
	"context"
	"fmt"

	"github.com/sandevgo/healthbot/internal/core"
)

// Retriever bridges text queries to vector search: encode the query,
// then KNN over the stored passages.
type Retriever struct {
	embedder core.Embedder
	repo     core.KnowledgeRepository
}

func NewRetriever(embedder core.Embedder, repo core.KnowledgeRepository) *Retriever {
	return &Retriever{embedder: embedder, repo: repo}
}

func (r *Retriever) Search(ctx context.Context, query string, k int) ([]core.Passage, error) {
	vector, err := r.embedder.EncodeQuery(ctx, query)
	if err != nil {
		return nil, core.WrapCapability(core.CapRetrieval, fmt.Errorf("encode query: %w", err))
	}

	passages, err := r.repo.SearchPassages(ctx, vector, k)
	if err != nil {
		return nil, core.WrapCapability(core.CapRetrieval, err)
	}
	return passages, nil
}
