package advisor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/internal/service/answer"
	"github.com/sandevgo/healthbot/internal/service/memory"
	"github.com/sandevgo/healthbot/internal/service/risk"
)

type fakeRepo struct {
	profiles  map[string]*core.Profile
	records   []core.SessionSummary
	documents map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{profiles: map[string]*core.Profile{}, documents: map[string]string{}}
}

func (r *fakeRepo) LoadProfile(_ context.Context, userHash string) (*core.Profile, error) {
	return r.profiles[userHash], nil
}

func (r *fakeRepo) SaveProfile(_ context.Context, p *core.Profile) error {
	r.profiles[p.UserHash] = p
	return nil
}

func (r *fakeRepo) AppendSessionRecord(_ context.Context, _ string, s core.SessionSummary) error {
	r.records = append(r.records, s)
	return nil
}

func (r *fakeRepo) WriteHistoryDocument(_ context.Context, userHash, rendered string) error {
	r.documents[userHash] = rendered
	return nil
}

// routingGen answers by request shape and records the prompts it saw.
type routingGen struct {
	prompts []string
}

func (g *routingGen) Chat(_ context.Context, msgs []core.Message) (core.Message, error) {
	system := msgs[0].Content
	user := msgs[len(msgs)-1].Content
	g.prompts = append(g.prompts, user)

	switch {
	case strings.Contains(system, "yes or no"):
		return core.Message{Content: "no"}, nil
	case strings.Contains(user, `{"done"`):
		return core.Message{Content: `{"done": true}`}, nil
	case strings.Contains(user, "JSON array"):
		return core.Message{Content: "[true]"}, nil
	case strings.Contains(system, "fact extraction"):
		return core.Message{Content: "[]"}, nil
	default:
		return core.Message{Content: "take care and rest"}, nil
	}
}

type stubRetriever struct{}

func (stubRetriever) Search(_ context.Context, _ string, _ int) ([]core.Passage, error) {
	return []core.Passage{{SourceID: "kb.md", Content: "general guidance"}}, nil
}

type stubWeb struct{}

func (stubWeb) Search(_ context.Context, _ string, _ int) ([]core.Snippet, error) {
	return nil, nil
}

func newTestAdvisor() (*Advisor, *fakeRepo, *routingGen) {
	repo := newFakeRepo()
	gen := &routingGen{}
	policy := config.ConsultConfig{
		MaxFollowUps:      3,
		MaxRetrievalLoops: 3,
		MinPassages:       1,
		SeverityEscalate:  7,
		Exhausted:         "summarize",
	}

	monitor := risk.NewMonitor(gen, policy)
	workflow := answer.NewWorkflow(gen, stubRetriever{}, stubWeb{}, policy)
	consolidator := memory.NewConsolidator(repo, memory.NewExtractor(gen))

	return New(repo, gen, monitor, workflow, consolidator, policy), repo, gen
}

func TestIdentifyUserCreatesAndIsIdempotent(t *testing.T) {
	a, repo, _ := newTestAdvisor()
	ctx := context.Background()

	p1, isNew, err := a.IdentifyUser(ctx, "+15550001111")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotNil(t, repo.profiles[p1.UserHash])

	// Same identifier, no session activity: same profile, not new.
	p2, isNew, err := a.IdentifyUser(ctx, "+15550001111")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Same(t, p1, p2)
}

func TestIdentifyUserRejectsMalformed(t *testing.T) {
	a, _, _ := newTestAdvisor()

	_, _, err := a.IdentifyUser(context.Background(), "  x ")
	assert.True(t, core.IsValidation(err))
}

func TestNewSessionConsolidatesActiveOne(t *testing.T) {
	a, _, _ := newTestAdvisor()
	ctx := context.Background()

	p, _, err := a.IdentifyUser(ctx, "user-a")
	require.NoError(t, err)

	// Some activity in the first session.
	_, err = a.ProcessAnswer(ctx, p.UserHash, "male")
	require.NoError(t, err)

	_, _, err = a.IdentifyUser(ctx, "user-a")
	require.NoError(t, err)

	assert.Len(t, p.Sessions, 1)
}

func TestConsultationRunsToConsolidation(t *testing.T) {
	a, repo, _ := newTestAdvisor()
	ctx := context.Background()

	p, _, err := a.IdentifyUser(ctx, "user-b")
	require.NoError(t, err)
	hash := p.UserHash

	assert.NotEmpty(t, a.CurrentQuestion(hash))

	answers := []string{
		"male", "30", "175", "75",
		"none", "none", "none", "none",
		"1",
		"sore throat", "throat", "1-3 days", "3",
	}
	for _, ans := range answers {
		res, err := a.ProcessAnswer(ctx, hash, ans)
		require.NoError(t, err)
		if res.Done {
			assert.Contains(t, res.Message, "take care")
		}
	}

	// Session finished and was consolidated.
	assert.Empty(t, a.CurrentQuestion(hash))
	require.Len(t, repo.profiles[hash].Sessions, 1)
	assert.Equal(t, "sore throat", repo.profiles[hash].Sessions[0].Cause)
	require.Len(t, repo.records, 1)
	assert.Contains(t, repo.documents[hash], "sore throat")

	_, err = a.ProcessAnswer(ctx, hash, "anything")
	assert.True(t, core.IsValidation(err))
}

func TestStartFreeQuestionUsesProfile(t *testing.T) {
	a, repo, gen := newTestAdvisor()
	ctx := context.Background()

	hash := core.HashIdentifier("user-c")
	repo.profiles[hash] = &core.Profile{
		UserHash:  hash,
		Allergies: []string{"penicillin"},
	}

	res, err := a.StartFreeQuestion(ctx, hash, "which antibiotics help a sinus infection?")
	require.NoError(t, err)
	assert.Equal(t, "take care and rest", res.Answer)

	// The advisory prompt carried the allergy for the model to avoid.
	joined := strings.Join(gen.prompts, "\n")
	assert.Contains(t, joined, "penicillin")
}

func TestStartFreeQuestionCriticalBypassesRetrieval(t *testing.T) {
	a, _, _ := newTestAdvisor()

	res, err := a.StartFreeQuestion(context.Background(), "anyhash", "I want to end my life")
	require.NoError(t, err)
	assert.Equal(t, risk.CrisisResponse, res.Answer)
	assert.Zero(t, res.Loops)
}

func TestHistorySummary(t *testing.T) {
	a, repo, _ := newTestAdvisor()
	ctx := context.Background()

	_, err := a.HistorySummary(ctx, "unknown")
	assert.True(t, core.IsValidation(err))

	hash := core.HashIdentifier("user-d")
	repo.profiles[hash] = &core.Profile{UserHash: hash, Age: 41}

	doc, err := a.HistorySummary(ctx, hash)
	require.NoError(t, err)
	assert.Contains(t, doc, "# Health Record")
	assert.Contains(t, doc, "41")
}
