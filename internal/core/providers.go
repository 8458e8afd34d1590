package core

import "context"

// Generator is the external text-generation capability.
type Generator interface {
	Chat(ctx context.Context, history []Message) (Message, error)
}

// Embedder turns text into vectors for similarity search. Queries and
// passages may be encoded differently depending on the backing model.
type Embedder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
	EncodePassage(ctx context.Context, text string) ([]float32, error)
}

// Passage is one retrieved knowledge-base candidate.
type Passage struct {
	SourceID string  `json:"source_id"`
	Content  string  `json:"content"`
	Score    float32 `json:"score"`
	FromWeb  bool    `json:"from_web,omitempty"`
}

// Retriever is the similarity-search capability over the knowledge base.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Passage, error)
}

// Snippet is one external web-search result.
type Snippet struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// WebSearcher is the external web-search capability.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Snippet, error)
}
