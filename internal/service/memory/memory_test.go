package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/healthbot/internal/core"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Chat(_ context.Context, _ []core.Message) (core.Message, error) {
	if s.err != nil {
		return core.Message{}, s.err
	}
	return core.Message{Role: core.RoleAssistant, Content: s.reply}, nil
}

type memRepo struct {
	saved      *core.Profile
	records    []core.SessionSummary
	documents  map[string]string
	failSave   bool
	failAppend bool
}

func newMemRepo() *memRepo {
	return &memRepo{documents: map[string]string{}}
}

func (r *memRepo) LoadProfile(_ context.Context, _ string) (*core.Profile, error) {
	return r.saved, nil
}

func (r *memRepo) SaveProfile(_ context.Context, p *core.Profile) error {
	if r.failSave {
		return errors.New("disk full")
	}
	r.saved = p
	return nil
}

func (r *memRepo) AppendSessionRecord(_ context.Context, _ string, s core.SessionSummary) error {
	if r.failAppend {
		return errors.New("disk full")
	}
	r.records = append(r.records, s)
	return nil
}

func (r *memRepo) WriteHistoryDocument(_ context.Context, userHash, rendered string) error {
	r.documents[userHash] = rendered
	return nil
}

func TestMergeScalarOverwrite(t *testing.T) {
	p := &core.Profile{Age: 30, Height: 170, Weight: 80}

	MergeIntoProfile(p, []Fact{
		{Field: FieldAge, Value: "31"},
		{Field: FieldHeight, Value: "175"},
		{Field: FieldWeight, Value: "75"},
		{Field: FieldSex, Value: "male"},
	})

	assert.Equal(t, 31, p.Age)
	assert.Equal(t, 175.0, p.Height)
	assert.Equal(t, 75.0, p.Weight)
	assert.Equal(t, core.SexMale, p.Sex)

	// Derived metrics follow the scalars.
	assert.Equal(t, 24.5, p.BMI())
}

func TestMergeRejectsOutOfRangeScalars(t *testing.T) {
	p := &core.Profile{Age: 30, Height: 170}

	MergeIntoProfile(p, []Fact{
		{Field: FieldAge, Value: "200"},
		{Field: FieldHeight, Value: "20"},
		{Field: FieldWeight, Value: "not a number"},
	})

	assert.Equal(t, 30, p.Age)
	assert.Equal(t, 170.0, p.Height)
	assert.Zero(t, p.Weight)
}

func TestMergeSetUnionNeverDrops(t *testing.T) {
	p := &core.Profile{Allergies: []string{"penicillin"}}

	MergeIntoProfile(p, []Fact{
		{Field: FieldAllergy, Value: "Penicillin"},
		{Field: FieldAllergy, Value: "pollen"},
		{Field: FieldChronicCondition, Value: "hypertension"},
		{Field: FieldMedication, Value: "metformin"},
	})

	assert.Equal(t, []string{"penicillin", "pollen"}, p.Allergies)
	assert.Equal(t, []string{"hypertension"}, p.ChronicConditions)
	assert.Equal(t, []string{"metformin"}, p.Medications)
}

func TestExtractProfileFacts(t *testing.T) {
	gen := &stubGenerator{reply: `Here are the facts:
[
  {"field": "allergy", "value": "penicillin", "confidence": 0.95, "source": "stated"},
  {"field": "weight", "value": "82", "confidence": 0.9, "source": "stated"},
  {"field": "medication", "value": "aspirin", "confidence": 0.3, "source": "inferred"},
  {"field": "favorite_color", "value": "blue", "confidence": 1.0, "source": "stated"}
]`}

	e := NewExtractor(gen)
	facts, err := e.ExtractProfileFacts(context.Background(), []core.Turn{
		{Speaker: "user", Text: "I'm allergic to penicillin and weigh 82 kg."},
	})
	require.NoError(t, err)

	// Low-confidence and unknown fields are filtered out.
	require.Len(t, facts, 2)
	assert.Equal(t, FieldAllergy, facts[0].Field)
	assert.Equal(t, FieldWeight, facts[1].Field)
}

func TestExtractProfileFactsEmptyTranscript(t *testing.T) {
	e := NewExtractor(&stubGenerator{err: errors.New("should not be called")})

	facts, err := e.ExtractProfileFacts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestConsolidateAppendsSummaryAndTrims(t *testing.T) {
	repo := newMemRepo()
	gen := &stubGenerator{reply: `[{"field": "height", "value": "175", "confidence": 1.0, "source": "stated"}]`}
	c := NewConsolidator(repo, NewExtractor(gen))

	profile := &core.Profile{UserHash: core.HashIdentifier("u"), Weight: 75}
	session := &core.Session{
		ID:             "sess-1",
		UserHash:       profile.UserHash,
		ChiefComplaint: "stomach pain",
		RiskLevel:      core.RiskLow,
		Advice:         "rest, hydrate, reassess in two days",
		Turns: []core.Turn{
			{Speaker: "user", Text: "my height is 175 cm", At: time.Now()},
		},
	}

	require.NoError(t, c.Consolidate(context.Background(), profile, session))

	require.Len(t, profile.Sessions, 1)
	assert.Equal(t, "stomach pain", profile.Sessions[0].Cause)
	assert.Equal(t, core.RiskLow, profile.Sessions[0].RiskLevel)
	assert.False(t, session.Active())

	// Extraction merged before persisting; 175cm/75kg gives BMI 24.5.
	assert.Equal(t, 24.5, repo.saved.BMI())

	// Transcript detail is irrecoverable afterwards.
	assert.Nil(t, session.Turns)
	require.Len(t, repo.records, 1)
	assert.Contains(t, repo.documents[profile.UserHash], "stomach pain")
}

func TestConsolidateExtractionFailureDegrades(t *testing.T) {
	repo := newMemRepo()
	c := NewConsolidator(repo, NewExtractor(&stubGenerator{err: errors.New("timeout")}))

	profile := &core.Profile{UserHash: "h"}
	session := &core.Session{ID: "sess-2", ChiefComplaint: "headache"}

	require.NoError(t, c.Consolidate(context.Background(), profile, session))
	require.Len(t, profile.Sessions, 1)
}

func TestConsolidateStorageFailureIsFatal(t *testing.T) {
	repo := newMemRepo()
	repo.failSave = true
	c := NewConsolidator(repo, NewExtractor(&stubGenerator{reply: "[]"}))

	err := c.Consolidate(context.Background(), &core.Profile{UserHash: "h"}, &core.Session{ID: "s"})

	var pe *core.PersistenceError
	require.ErrorAs(t, err, &pe)
}

func TestRenderHistory(t *testing.T) {
	p := &core.Profile{
		UserHash: core.HashIdentifier("u"),
		Sex:      core.SexFemale,
		Age:      34,
		Height:   165,
		Weight:   60,
		Allergies: []string{"pollen"},
		Sessions: []core.SessionSummary{
			{Cause: "cough", RiskLevel: core.RiskLow, Date: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		},
	}

	doc := RenderHistory(p)

	assert.Contains(t, doc, "# Health Record")
	assert.Contains(t, doc, "| BMI | 22.0 |")
	assert.Contains(t, doc, "pollen")
	assert.Contains(t, doc, "cough")
	assert.Contains(t, doc, "2026-03-01")
}

func TestTrimToBudgetKeepsNewestTurns(t *testing.T) {
	turns := []core.Turn{
		{Speaker: "user", Text: strings.Repeat("persistent headache behind the eyes ", 20)},
		{Speaker: "assistant", Text: "How long has this been going on?"},
		{Speaker: "user", Text: "two weeks"},
	}

	trimmed := trimToBudget(turns, 12)

	require.NotEmpty(t, trimmed)
	assert.Less(t, len(trimmed), len(turns))
	assert.Equal(t, "two weeks", trimmed[len(trimmed)-1].Text)

	assert.Len(t, trimToBudget(turns, 100000), len(turns))
}
