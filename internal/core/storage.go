package core

import (
	"context"
	"time"
)

// ProfileRepository is the durable storage collaborator for profiles and
// session artifacts. Load returns (nil, nil) for an unknown user hash.
type ProfileRepository interface {
	LoadProfile(ctx context.Context, userHash string) (*Profile, error)
	SaveProfile(ctx context.Context, profile *Profile) error
	AppendSessionRecord(ctx context.Context, userHash string, summary SessionSummary) error
	WriteHistoryDocument(ctx context.Context, userHash string, rendered string) error
}

// StoredPassage is a knowledge-base chunk persisted with its embedding.
type StoredPassage struct {
	ID        int64     `json:"id"`
	SourceID  string    `json:"source_id"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// KnowledgeRepository persists and searches knowledge-base passages.
type KnowledgeRepository interface {
	SavePassage(ctx context.Context, p StoredPassage) error
	SearchPassages(ctx context.Context, vector []float32, k int) ([]Passage, error)
}
