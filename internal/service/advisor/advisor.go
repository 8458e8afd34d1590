package advisor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/internal/service/answer"
	"github.com/sandevgo/healthbot/internal/service/consult"
	"github.com/sandevgo/healthbot/internal/service/memory"
	"github.com/sandevgo/healthbot/internal/service/risk"
	"github.com/sandevgo/healthbot/pkg/log"
)

// Advisor is the orchestration surface above the consultation machine,
// the retrieval workflow and the memory store. It keeps at most one
// active session per user identity; starting a new one consolidates the
// previous session first.
type Advisor struct {
	repo         core.ProfileRepository
	ai           core.Generator
	monitor      *risk.Monitor
	workflow     *answer.Workflow
	consolidator *memory.Consolidator
	policy       core.ConsultPolicy

	mu     sync.Mutex
	active map[string]*activeSession
}

type activeSession struct {
	profile *core.Profile
	machine *consult.Machine
}

func New(repo core.ProfileRepository, ai core.Generator, monitor *risk.Monitor, workflow *answer.Workflow, consolidator *memory.Consolidator, policy core.ConsultPolicy) *Advisor {
	return &Advisor{
		repo:         repo,
		ai:           ai,
		monitor:      monitor,
		workflow:     workflow,
		consolidator: consolidator,
		policy:       policy,
		active:       make(map[string]*activeSession),
	}
}

// IdentifyUser resolves the identifier to a profile, creating one on
// first contact, and starts a consultation session. Re-identifying with
// no session activity in between returns the same profile and session.
func (a *Advisor) IdentifyUser(ctx context.Context, identifier string) (*core.Profile, bool, error) {
	identifier = strings.TrimSpace(identifier)
	if len(identifier) < 4 {
		return nil, false, core.NewValidationError("identifier", "too short")
	}

	userHash := core.HashIdentifier(identifier)
	logger := log.FromCtx(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if as, ok := a.active[userHash]; ok {
		if len(as.machine.Session().Turns) == 0 {
			// Nothing happened yet; identifying again is a no-op.
			return as.profile, false, nil
		}
		if err := a.consolidator.Consolidate(ctx, as.profile, as.machine.Session()); err != nil {
			return nil, false, err
		}
		delete(a.active, userHash)
	}

	profile, err := a.repo.LoadProfile(ctx, userHash)
	if err != nil {
		return nil, false, core.WrapCapability(core.CapStorage, err)
	}

	isNew := profile == nil
	if isNew {
		now := time.Now().UTC()
		profile = &core.Profile{UserHash: userHash, CreatedAt: now, LastVisit: now}
		if err := a.repo.SaveProfile(ctx, profile); err != nil {
			return nil, false, core.WrapCapability(core.CapStorage, err)
		}
		logger.Info().Str("user", userHash[:8]).Msg("new user registered")
	}

	a.active[userHash] = &activeSession{
		profile: profile,
		machine: a.newMachine(profile),
	}
	return profile, isNew, nil
}

func (a *Advisor) newMachine(profile *core.Profile) *consult.Machine {
	session := &core.Session{
		ID:        uuid.NewString(),
		UserHash:  profile.UserHash,
		StartedAt: time.Now().UTC(),
	}
	return consult.NewMachine(profile, session, a.monitor, a.ai, a.workflow, a.policy)
}

// CurrentQuestion returns the next intake prompt for the user's active
// session, empty when there is none.
func (a *Advisor) CurrentQuestion(userHash string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	as, ok := a.active[userHash]
	if !ok {
		return ""
	}
	return as.machine.CurrentQuestion()
}

// ProcessAnswer advances the user's consultation by one answer. A
// finished session is consolidated before returning.
func (a *Advisor) ProcessAnswer(ctx context.Context, userHash, userAnswer string) (consult.StepResult, error) {
	a.mu.Lock()
	as, ok := a.active[userHash]
	a.mu.Unlock()
	if !ok {
		return consult.StepResult{}, core.NewValidationError("session", "no active session, identify first")
	}

	result, err := as.machine.ProcessAnswer(ctx, userAnswer)
	if err != nil {
		return consult.StepResult{}, err
	}

	if result.Done {
		if err := a.closeSession(ctx, userHash, as); err != nil {
			return consult.StepResult{}, err
		}
	}
	return result, nil
}

// ConsultationSummary snapshots the active session's intake.
func (a *Advisor) ConsultationSummary(userHash string) (consult.ConsultationSummary, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	as, ok := a.active[userHash]
	if !ok {
		return consult.ConsultationSummary{}, false
	}
	return as.machine.Summary(), true
}

// StartFreeQuestion routes an open question directly into the retrieval
// workflow, personalized with the stored profile. The risk scan still
// applies: a CRITICAL query gets the crisis response and no retrieval.
func (a *Advisor) StartFreeQuestion(ctx context.Context, userHash, query string) (answer.Result, error) {
	if strings.TrimSpace(query) == "" {
		return answer.Result{}, core.NewValidationError("query", "empty question")
	}

	profile := a.profileFor(ctx, userHash)

	assessment := a.monitor.Assess(ctx, query, 0)
	if assessment.Level == core.RiskCritical {
		return answer.Result{Answer: assessment.Response}, nil
	}

	return a.workflow.Run(ctx, answer.Request{
		Query:   query,
		Kind:    answer.KindOpen,
		Profile: profile,
	})
}

// HistorySummary renders the stored health record for the user.
func (a *Advisor) HistorySummary(ctx context.Context, userHash string) (string, error) {
	profile, err := a.repo.LoadProfile(ctx, userHash)
	if err != nil {
		return "", core.WrapCapability(core.CapStorage, err)
	}
	if profile == nil {
		return "", core.NewValidationError("user", "unknown user")
	}
	return memory.RenderHistory(profile), nil
}

// EndSession consolidates and drops the user's active session, if any.
func (a *Advisor) EndSession(ctx context.Context, userHash string) error {
	a.mu.Lock()
	as, ok := a.active[userHash]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.closeSession(ctx, userHash, as)
}

func (a *Advisor) closeSession(ctx context.Context, userHash string, as *activeSession) error {
	a.mu.Lock()
	delete(a.active, userHash)
	a.mu.Unlock()

	return a.consolidator.Consolidate(ctx, as.profile, as.machine.Session())
}

func (a *Advisor) profileFor(ctx context.Context, userHash string) *core.Profile {
	a.mu.Lock()
	if as, ok := a.active[userHash]; ok {
		a.mu.Unlock()
		return as.profile
	}
	a.mu.Unlock()

	profile, err := a.repo.LoadProfile(ctx, userHash)
	if err != nil || profile == nil {
		return &core.Profile{UserHash: userHash}
	}
	return profile
}
