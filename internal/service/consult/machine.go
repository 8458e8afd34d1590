package consult

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/internal/service/answer"
	"github.com/sandevgo/healthbot/internal/service/risk"
	"github.com/sandevgo/healthbot/pkg/log"
)

// StepResult is the outcome of processing one user answer.
type StepResult struct {
	// Done marks the session as finished; no further questions follow.
	Done bool
	// Reprompt marks a validation failure: state did not advance and
	// Message repeats the question.
	Reprompt bool
	// Escalated marks a CRITICAL risk short-circuit.
	Escalated bool
	// Message is the system response to show, empty when the next
	// scripted question is all there is to say.
	Message string
	Risk    core.RiskLevel
}

// Machine drives one structured consultation for one user. It owns the
// session transcript; the profile is mutated in memory only and
// persisted by consolidation at the session boundary.
//
// Returning users with a complete demographic block skip straight to
// intent selection.
type Machine struct {
	profile  *core.Profile
	session  *core.Session
	monitor  *risk.Monitor
	ai       core.Generator
	workflow *answer.Workflow
	policy   core.ConsultPolicy

	qIdx int
}

func NewMachine(profile *core.Profile, session *core.Session, monitor *risk.Monitor, ai core.Generator, workflow *answer.Workflow, policy core.ConsultPolicy) *Machine {
	if session.Stage == "" || session.Stage == core.StageIdentify {
		if profile.HasBasicInfo() {
			session.Stage = core.StageIntentSelect
		} else {
			session.Stage = core.StageBasicInfo
		}
	}
	return &Machine{
		profile:  profile,
		session:  session,
		monitor:  monitor,
		ai:       ai,
		workflow: workflow,
		policy:   policy,
	}
}

func (m *Machine) Session() *core.Session { return m.session }

// CurrentQuestion returns the next prompt for the current stage. It is
// deterministic and has no side effects; empty means the session is
// waiting for nothing.
func (m *Machine) CurrentQuestion() string {
	switch m.session.Stage {
	case core.StageFollowUp:
		if fu := m.pendingFollowUp(); fu != nil {
			return fu.Question
		}
		return ""
	default:
		if q := m.currentScripted(); q != nil {
			return renderQuestion(*q)
		}
		return ""
	}
}

// ProcessAnswer validates and stores one answer, runs the risk scan and
// advances the state machine, possibly all the way through assessment
// and advisory generation. Only a terminal generation failure is
// returned as an error.
func (m *Machine) ProcessAnswer(ctx context.Context, userAnswer string) (StepResult, error) {
	if !m.session.Active() {
		return StepResult{Done: true, Risk: m.session.RiskLevel}, nil
	}

	question := m.CurrentQuestion()
	m.session.Record(core.RoleAssistant, question)
	m.session.Record(core.RoleUser, userAnswer)

	// Risk scan precedes storage; CRITICAL ends everything here.
	assessment := m.monitor.Assess(ctx, userAnswer, m.session.Severity)
	m.noteRisk(assessment)
	if assessment.Level == core.RiskCritical {
		return m.escalate(assessment), nil
	}

	switch m.session.Stage {
	case core.StageFollowUp:
		return m.processFollowUpAnswer(ctx, userAnswer)
	default:
		return m.processScriptedAnswer(ctx, userAnswer)
	}
}

func (m *Machine) processScriptedAnswer(ctx context.Context, userAnswer string) (StepResult, error) {
	q := m.currentScripted()
	if q == nil {
		return StepResult{Done: true, Risk: m.session.RiskLevel}, nil
	}

	value, err := q.validate(userAnswer)
	if err != nil {
		return StepResult{
			Reprompt: true,
			Message:  fmt.Sprintf("That doesn't look right (%v). %s", err, renderQuestion(*q)),
			Risk:     m.session.RiskLevel,
		}, nil
	}

	m.storeAnswer(q.Field, value)
	m.qIdx++

	if m.qIdx >= len(script[m.session.Stage]) {
		return m.advanceStage(ctx)
	}
	return StepResult{Risk: m.session.RiskLevel}, nil
}

func (m *Machine) processFollowUpAnswer(ctx context.Context, userAnswer string) (StepResult, error) {
	if fu := m.pendingFollowUp(); fu != nil {
		fu.Answer = strings.TrimSpace(userAnswer)
	}

	// The ceiling is enforced here regardless of what the model-backed
	// decision recommends.
	if len(m.session.FollowUps) >= m.policy.FollowUpCeiling() {
		return m.finalize(ctx)
	}

	decision := m.decideFollowUp(ctx)
	if decision.Done {
		return m.finalize(ctx)
	}

	m.session.FollowUps = append(m.session.FollowUps, core.FollowUp{
		Question: decision.Question,
		Reason:   decision.Reason,
	})
	return StepResult{Risk: m.session.RiskLevel}, nil
}

func (m *Machine) advanceStage(ctx context.Context) (StepResult, error) {
	m.qIdx = 0

	switch m.session.Stage {
	case core.StageBasicInfo:
		m.session.Stage = core.StageHistoryIntake
		return m.transitionMessage("Basic information recorded. Next, a few questions about your medical history."), nil

	case core.StageHistoryIntake:
		m.session.Stage = core.StageIntentSelect
		return m.transitionMessage("Medical history recorded."), nil

	case core.StageIntentSelect:
		m.session.Stage = core.StageSymptomDescribe
		return StepResult{Risk: m.session.RiskLevel}, nil

	case core.StageSymptomDescribe:
		m.session.Stage = core.StageFollowUp

		if m.policy.FollowUpCeiling() <= 0 {
			return m.finalize(ctx)
		}
		decision := m.decideFollowUp(ctx)
		if decision.Done {
			return m.finalize(ctx)
		}
		m.session.FollowUps = append(m.session.FollowUps, core.FollowUp{
			Question: decision.Question,
			Reason:   decision.Reason,
		})
		return StepResult{Risk: m.session.RiskLevel}, nil
	}

	return StepResult{Done: true, Risk: m.session.RiskLevel}, nil
}

// finalize runs the final risk assessment and the advisory workflow,
// then closes the intake.
func (m *Machine) finalize(ctx context.Context) (StepResult, error) {
	m.session.Stage = core.StageRiskAssess

	assessment := m.monitor.Assess(ctx, m.collectedText(), m.session.Severity)
	m.noteRisk(assessment)
	if assessment.Level == core.RiskCritical {
		return m.escalate(assessment), nil
	}

	riskNotice := assessment.Response

	m.session.Stage = core.StageAdvise
	summary := m.Summary()

	result, err := m.workflow.Run(ctx, answer.Request{
		Query:   summary.RetrievalQuery(),
		Kind:    answer.KindAdvisory,
		Profile: m.profile,
	})
	if err != nil {
		return StepResult{}, err
	}

	m.session.Advice = result.Answer
	m.session.Stage = core.StageEnd

	message := result.Answer
	if riskNotice != "" {
		message = riskNotice + "\n\n" + result.Answer
	}
	m.session.Record(core.RoleAssistant, message)

	log.FromCtx(ctx).Info().
		Str("session", m.session.ID).
		Str("risk", string(m.session.RiskLevel)).
		Int("follow_ups", len(m.session.FollowUps)).
		Msg("consultation completed")

	return StepResult{Done: true, Message: message, Risk: m.session.RiskLevel}, nil
}

func (m *Machine) escalate(a risk.Assessment) StepResult {
	m.session.Stage = core.StageEnd
	m.session.Record(core.RoleAssistant, a.Response)
	return StepResult{
		Done:      true,
		Escalated: true,
		Message:   a.Response,
		Risk:      core.RiskCritical,
	}
}

// noteRisk keeps the session at the highest level seen so far.
func (m *Machine) noteRisk(a risk.Assessment) {
	m.session.RiskLevel = m.session.RiskLevel.Max(a.Level)
	for _, kw := range a.Keywords {
		m.session.RiskKeywords = appendUnique(m.session.RiskKeywords, kw)
	}
}

func (m *Machine) storeAnswer(field, value string) {
	switch field {
	case "sex":
		m.profile.Sex = core.Sex(value)
	case "age":
		if v, err := strconv.Atoi(value); err == nil {
			m.profile.Age = v
		} else if f, err := strconv.ParseFloat(value, 64); err == nil {
			m.profile.Age = int(f)
		}
	case "height":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			m.profile.Height = v
		}
	case "weight":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			m.profile.Weight = v
		}
	case "family_history":
		m.profile.FamilyHistory = unionList(m.profile.FamilyHistory, value)
	case "allergies":
		if !isNone(value) {
			m.profile.Allergies = unionList(m.profile.Allergies, value)
		}
	case "chronic_conditions":
		m.profile.ChronicConditions = unionList(m.profile.ChronicConditions, value)
	case "medications":
		if !isNone(value) {
			m.profile.Medications = unionList(m.profile.Medications, value)
		}
	case "intent":
		m.session.Intent = value
	case "chief_complaint":
		m.session.ChiefComplaint = value
	case "symptom_location":
		if !isNone(value) {
			m.session.SymptomLocation = value
		}
	case "symptom_duration":
		m.session.SymptomDuration = value
	case "severity":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			m.session.Severity = int(v)
		}
	}
}

// collectedText is everything risk-relevant gathered during intake.
func (m *Machine) collectedText() string {
	parts := []string{m.session.ChiefComplaint, m.session.SymptomLocation}
	for _, fu := range m.session.FollowUps {
		parts = append(parts, fu.Answer)
	}
	parts = append(parts, m.profile.ChronicConditions...)
	parts = append(parts, m.profile.Allergies...)
	return strings.Join(parts, " ")
}

func (m *Machine) currentScripted() *Question {
	questions, ok := script[m.session.Stage]
	if !ok || m.qIdx >= len(questions) {
		return nil
	}
	return &questions[m.qIdx]
}

func (m *Machine) pendingFollowUp() *core.FollowUp {
	if len(m.session.FollowUps) == 0 {
		return nil
	}
	last := &m.session.FollowUps[len(m.session.FollowUps)-1]
	if last.Answer != "" {
		return nil
	}
	return last
}

func (m *Machine) transitionMessage(text string) StepResult {
	return StepResult{Message: text, Risk: m.session.RiskLevel}
}

func renderQuestion(q Question) string {
	if len(q.Options) == 0 {
		return q.Prompt
	}
	var b strings.Builder
	b.WriteString(q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, opt)
	}
	return b.String()
}

func unionList(set []string, value string) []string {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set = appendUnique(set, part)
	}
	return set
}

func appendUnique(set []string, value string) []string {
	for _, existing := range set {
		if strings.EqualFold(existing, value) {
			return set
		}
	}
	return append(set, value)
}
