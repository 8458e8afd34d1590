package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// ProfileRepo stores profiles as JSON documents keyed by user hash and
// mirrors each consultation outcome into a flat session_records table.
// Rendered history documents land as markdown files under historyDir.
type ProfileRepo struct {
	db         *sql.DB
	historyDir string
}

func NewProfileRepo(db *sql.DB, historyDir string) *ProfileRepo {
	return &ProfileRepo{db: db, historyDir: historyDir}
}

func (r *ProfileRepo) LoadProfile(ctx context.Context, userHash string) (*core.Profile, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE user_hash = ?`, userHash,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile core.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("user", userHash[:8]).Msg("loaded profile")
	return &profile, nil
}

func (r *ProfileRepo) SaveProfile(ctx context.Context, profile *core.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_hash, data) VALUES (?, ?)
		ON CONFLICT (user_hash) DO UPDATE SET
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP`,
		profile.UserHash, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) AppendSessionRecord(ctx context.Context, userHash string, summary core.SessionSummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_records (user_hash, session_id, cause, conclusion, risk_level, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userHash, summary.SessionID, summary.Cause, summary.Conclusion, string(summary.RiskLevel), summary.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to append session record: %w", err)
	}
	return nil
}

func (r *ProfileRepo) WriteHistoryDocument(ctx context.Context, userHash string, rendered string) error {
	if err := os.MkdirAll(r.historyDir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	path := filepath.Join(r.historyDir, userHash+".md")
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write history document: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("path", path).Msg("wrote history document")
	return nil
}
