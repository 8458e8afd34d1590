package memory

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// conclusionLimit caps how much of the advisory text survives into the
// session summary.
const conclusionLimit = 300

// Consolidator runs the session-boundary trim: extract durable facts
// from the transcript, merge them into the profile, append a session
// summary, persist everything and discard the transcript detail. It
// never runs mid-session.
type Consolidator struct {
	repo      core.ProfileRepository
	extractor *Extractor
}

func NewConsolidator(repo core.ProfileRepository, extractor *Extractor) *Consolidator {
	return &Consolidator{repo: repo, extractor: extractor}
}

// Consolidate closes the session into the profile. Extraction failures
// degrade to a summary-only consolidation; storage failures surface as
// PersistenceError because silently losing a profile update is not an
// option.
func (c *Consolidator) Consolidate(ctx context.Context, profile *core.Profile, session *core.Session) error {
	logger := log.FromCtx(ctx)

	if session.Active() {
		session.EndedAt = time.Now().UTC()
	}

	facts, err := c.extractor.ExtractProfileFacts(ctx, session.Turns)
	if err != nil {
		logger.Warn().Err(err).Msg("fact extraction failed, consolidating summary only")
	} else {
		MergeIntoProfile(profile, facts)
	}

	summary := core.SessionSummary{
		SessionID:  session.ID,
		Cause:      sessionCause(session),
		Conclusion: truncate(session.Advice, conclusionLimit),
		RiskLevel:  session.RiskLevel,
		Date:       session.EndedAt,
	}
	profile.Sessions = append(profile.Sessions, summary)
	profile.LastVisit = session.EndedAt

	if err := c.repo.SaveProfile(ctx, profile); err != nil {
		return &core.PersistenceError{Op: "save profile", Err: err}
	}
	if err := c.repo.AppendSessionRecord(ctx, profile.UserHash, summary); err != nil {
		return &core.PersistenceError{Op: "append session record", Err: err}
	}
	if err := c.repo.WriteHistoryDocument(ctx, profile.UserHash, RenderHistory(profile)); err != nil {
		return &core.PersistenceError{Op: "write history document", Err: err}
	}

	// Transcript detail is gone for good after this point.
	session.Turns = nil
	session.FollowUps = nil

	logger.Info().
		Str("session", session.ID).
		Str("risk", string(summary.RiskLevel)).
		Msg("session consolidated")
	return nil
}

func sessionCause(session *core.Session) string {
	if session.ChiefComplaint != "" {
		return session.ChiefComplaint
	}
	return "general inquiry"
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
