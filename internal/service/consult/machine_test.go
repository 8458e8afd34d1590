package consult

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/internal/service/answer"
	"github.com/sandevgo/healthbot/internal/service/risk"
)

// scriptedGen routes by the shape of the request: emergency yes/no
// judgements, follow-up decisions (popped in order), passage grading
// and the advisory summary.
type scriptedGen struct {
	judgeReply      string
	followUpReplies []string
	gradeReply      string
	summaryReply    string
}

func (g *scriptedGen) Chat(_ context.Context, msgs []core.Message) (core.Message, error) {
	system := msgs[0].Content
	user := msgs[len(msgs)-1].Content

	switch {
	case strings.Contains(system, "yes or no"):
		return core.Message{Content: g.judgeReply}, nil
	case strings.Contains(user, `{"done"`):
		if len(g.followUpReplies) == 0 {
			return core.Message{Content: `{"done": true}`}, nil
		}
		reply := g.followUpReplies[0]
		g.followUpReplies = g.followUpReplies[1:]
		return core.Message{Content: reply}, nil
	case strings.Contains(user, "JSON array"):
		return core.Message{Content: g.gradeReply}, nil
	default:
		return core.Message{Content: g.summaryReply}, nil
	}
}

type stubRetriever struct{ passages []core.Passage }

func (r *stubRetriever) Search(_ context.Context, _ string, _ int) ([]core.Passage, error) {
	return r.passages, nil
}

type stubWeb struct{}

func (stubWeb) Search(_ context.Context, _ string, _ int) ([]core.Snippet, error) {
	return nil, nil
}

func testPolicy() core.ConsultPolicy {
	return config.ConsultConfig{
		MaxFollowUps:      3,
		MaxRetrievalLoops: 3,
		MinPassages:       1,
		SeverityEscalate:  7,
		Exhausted:         "summarize",
	}
}

func newTestMachine(t *testing.T, profile *core.Profile, gen *scriptedGen) *Machine {
	t.Helper()

	policy := testPolicy()
	monitor := risk.NewMonitor(gen, policy)
	workflow := answer.NewWorkflow(gen,
		&stubRetriever{passages: []core.Passage{{SourceID: "kb.md", Content: "guidance"}}},
		stubWeb{}, policy)
	session := &core.Session{ID: "sess-1", UserHash: profile.UserHash, StartedAt: time.Now()}

	return NewMachine(profile, session, monitor, gen, workflow, policy)
}

func answerAll(t *testing.T, m *Machine, answers ...string) StepResult {
	t.Helper()
	var last StepResult
	for _, a := range answers {
		var err error
		last, err = m.ProcessAnswer(context.Background(), a)
		require.NoError(t, err)
	}
	return last
}

func TestNewUserStartsAtBasicInfo(t *testing.T) {
	m := newTestMachine(t, &core.Profile{UserHash: "h"}, &scriptedGen{})

	assert.Equal(t, core.StageBasicInfo, m.Session().Stage)
	assert.Contains(t, m.CurrentQuestion(), "sex")
	assert.Contains(t, m.CurrentQuestion(), "1. male")
}

func TestReturningUserSkipsIntake(t *testing.T) {
	profile := &core.Profile{UserHash: "h", Sex: core.SexMale, Age: 40, Height: 180, Weight: 80}
	m := newTestMachine(t, profile, &scriptedGen{})

	assert.Equal(t, core.StageIntentSelect, m.Session().Stage)
}

func TestValidationReprompts(t *testing.T) {
	m := newTestMachine(t, &core.Profile{UserHash: "h"}, &scriptedGen{})
	answerAll(t, m, "male") // sex ok, now age

	res, err := m.ProcessAnswer(context.Background(), "not a number")
	require.NoError(t, err)
	assert.True(t, res.Reprompt)
	assert.Contains(t, res.Message, "How old are you")

	res, err = m.ProcessAnswer(context.Background(), "200")
	require.NoError(t, err)
	assert.True(t, res.Reprompt)

	res, err = m.ProcessAnswer(context.Background(), "30")
	require.NoError(t, err)
	assert.False(t, res.Reprompt)
	assert.Equal(t, 30, m.profile.Age)
}

func TestFullConsultationLowRisk(t *testing.T) {
	gen := &scriptedGen{
		judgeReply: "no",
		followUpReplies: []string{
			`{"done": false, "question": "Where exactly is the pain?", "reason": "localize the symptom"}`,
			`{"done": false, "question": "How would you describe the pain?", "reason": "characterize quality"}`,
			`{"done": true}`,
		},
		gradeReply:   "[true]",
		summaryReply: "Rest, light food, and see a doctor if it persists.",
	}
	profile := &core.Profile{UserHash: "h"}
	m := newTestMachine(t, profile, gen)

	// Intake: demographics, history, intent, symptoms.
	answerAll(t, m,
		"male", "30", "175", "75",
		"none", "none", "none", "none",
		"1",
		"stomach pain", "belly", "1-3 days", "6",
	)

	assert.Equal(t, core.StageFollowUp, m.Session().Stage)
	assert.Equal(t, "Where exactly is the pain?", m.CurrentQuestion())

	answerAll(t, m, "lower abdomen")
	res := answerAll(t, m, "cramping")

	assert.True(t, res.Done)
	assert.False(t, res.Escalated)
	assert.Equal(t, core.RiskLow, res.Risk)
	assert.Contains(t, res.Message, "Rest, light food")
	assert.Equal(t, core.StageEnd, m.Session().Stage)

	// Intake answers landed in the profile and session.
	assert.Equal(t, 175.0, profile.Height)
	assert.Equal(t, "stomach pain", m.Session().ChiefComplaint)
	assert.Equal(t, 6, m.Session().Severity)
	assert.Len(t, m.Session().FollowUps, 2)
	assert.Equal(t, "cramping", m.Session().FollowUps[1].Answer)
}

func TestFollowUpCeilingEnforced(t *testing.T) {
	gen := &scriptedGen{
		judgeReply: "no",
		followUpReplies: []string{
			`{"done": false, "question": "q1", "reason": "r"}`,
			`{"done": false, "question": "q2", "reason": "r"}`,
			`{"done": false, "question": "q3", "reason": "r"}`,
			`{"done": false, "question": "q4", "reason": "never asked"}`,
		},
		gradeReply:   "[true]",
		summaryReply: "advice",
	}
	profile := &core.Profile{UserHash: "h", Sex: core.SexFemale, Age: 25, Height: 165, Weight: 60}
	m := newTestMachine(t, profile, gen)

	answerAll(t, m, "1", "mild recurring headache behind the eyes", "head", "about a week", "4")
	res := answerAll(t, m, "a1", "a2", "a3")

	// The ceiling wins over the model wanting a fourth round.
	assert.True(t, res.Done)
	assert.Len(t, m.Session().FollowUps, 3)
	assert.NotEqual(t, core.StageFollowUp, m.Session().Stage)
}

func TestCriticalShortCircuitsAnyStage(t *testing.T) {
	m := newTestMachine(t, &core.Profile{UserHash: "h"}, &scriptedGen{})
	answerAll(t, m, "male", "30")

	res, err := m.ProcessAnswer(context.Background(), "lately I think about suicide")
	require.NoError(t, err)

	assert.True(t, res.Done)
	assert.True(t, res.Escalated)
	assert.Equal(t, core.RiskCritical, res.Risk)
	assert.Equal(t, risk.CrisisResponse, res.Message)
	assert.Equal(t, core.StageEnd, m.Session().Stage)

	// Nothing advances after escalation.
	res, err = m.ProcessAnswer(context.Background(), "175")
	require.NoError(t, err)
	assert.True(t, res.Done)
}

func TestHighRiskContinuesToAdvice(t *testing.T) {
	gen := &scriptedGen{
		judgeReply:   "yes",
		gradeReply:   "[true]",
		summaryReply: "Take aspirin only if prescribed; go to the ER now.",
	}
	profile := &core.Profile{UserHash: "h", Sex: core.SexMale, Age: 55, Height: 178, Weight: 90}
	m := newTestMachine(t, profile, gen)

	answerAll(t, m, "1", "chest pain, radiating to left arm", "chest", "it started today")
	res := answerAll(t, m, "8")

	assert.True(t, res.Done)
	assert.False(t, res.Escalated)
	assert.Equal(t, core.RiskHigh, res.Risk)
	assert.Contains(t, res.Message, "Important health notice")
	assert.Contains(t, res.Message, "go to the ER now")
}

func TestSummaryAndRetrievalQuery(t *testing.T) {
	gen := &scriptedGen{judgeReply: "no", gradeReply: "[true]", summaryReply: "advice"}
	profile := &core.Profile{UserHash: "h", Sex: core.SexMale, Age: 30, Height: 175, Weight: 75}
	m := newTestMachine(t, profile, gen)

	answerAll(t, m, "1", "sore throat", "throat", "1-3 days", "3")

	s := m.Summary()
	assert.Equal(t, "sore throat", s.ChiefComplaint)
	assert.Equal(t, 3, s.Severity)

	q := s.RetrievalQuery()
	assert.Contains(t, q, "Chief complaint: sore throat")
	assert.Contains(t, q, "Severity: 3/10")
	assert.Contains(t, m.Summary().Display(), "sore throat")
}
