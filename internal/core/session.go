package core

import "time"

// Stage identifies the current step of the structured intake.
type Stage string

const (
	StageIdentify        Stage = "identify"
	StageBasicInfo       Stage = "basic_info"
	StageHistoryIntake   Stage = "history_intake"
	StageIntentSelect    Stage = "intent_select"
	StageSymptomDescribe Stage = "symptom_describe"
	StageFollowUp        Stage = "follow_up"
	StageRiskAssess      Stage = "risk_assess"
	StageAdvise          Stage = "advise"
	StageEnd             Stage = "end"
)

// Turn is one utterance of the session transcript.
type Turn struct {
	Speaker string    `json:"speaker"` // RoleUser or RoleAssistant
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// FollowUp is one structured follow-up round: the AI-proposed question,
// its one-line justification and the captured answer.
type FollowUp struct {
	Question string `json:"question"`
	Reason   string `json:"reason,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

// Session is the short-lived per-consultation transcript and intake state.
// It is discarded at session end; only the derived SessionSummary survives.
type Session struct {
	ID        string    `json:"id"`
	UserHash  string    `json:"user_hash"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`

	Stage Stage `json:"stage"`

	Intent          string `json:"intent,omitempty"`
	ChiefComplaint  string `json:"chief_complaint,omitempty"`
	SymptomLocation string `json:"symptom_location,omitempty"`
	SymptomDuration string `json:"symptom_duration,omitempty"`
	Severity        int    `json:"severity,omitempty"` // 1-10, 0 = not captured

	FollowUps []FollowUp `json:"follow_ups,omitempty"`

	RiskLevel    RiskLevel `json:"risk_level,omitempty"`
	RiskKeywords []string  `json:"risk_keywords,omitempty"`

	Advice string `json:"advice,omitempty"`

	Turns []Turn `json:"turns,omitempty"`
}

// Record appends a turn to the transcript.
func (s *Session) Record(speaker, text string) {
	s.Turns = append(s.Turns, Turn{Speaker: speaker, Text: text, At: time.Now()})
}

// Active reports whether the session is still in progress.
func (s *Session) Active() bool {
	return s.EndedAt.IsZero() && s.Stage != StageEnd
}
