package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/healthbot/internal/core"
)

type KnowledgeRepo struct {
	db *sql.DB
}

func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

func (r *KnowledgeRepo) SavePassage(ctx context.Context, p core.StoredPassage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	vecBlob, err := serializeVector(p.Embedding)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO passages (source_id, content) VALUES (?, ?)`,
		p.SourceID, p.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to insert passage: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// The vector lives in the virtual table under the same rowid.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO passages_vec (rowid, embedding) VALUES (?, ?)`,
		id, vecBlob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert passage vector: %w", err)
	}

	return tx.Commit()
}

func (r *KnowledgeRepo) SearchPassages(ctx context.Context, vector []float32, k int) ([]core.Passage, error) {
	vecBlob, err := serializeVector(vector)
	if err != nil {
		return nil, err
	}

	// KNN over the vec0 table; distance is L2, lower is closer.
	query := `
		SELECT p.source_id, p.content, v.distance
		FROM passages_vec v
		JOIN passages p ON p.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`

	rows, err := r.db.QueryContext(ctx, query, vecBlob, k)
	if err != nil {
		return nil, fmt.Errorf("passage search failed: %w", err)
	}
	defer rows.Close()

	var results []core.Passage
	for rows.Next() {
		var p core.Passage
		if err := rows.Scan(&p.SourceID, &p.Content, &p.Score); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
