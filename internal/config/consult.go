package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/healthbot/pkg/log"
)

// Default risk keyword lists. Matching is substring-based on the lowered
// utterance; entries therefore stay short and specific.
var (
	defaultCriticalKeywords = []string{
		"suicide", "suicidal", "kill myself", "end my life",
		"self-harm", "self harm", "hurt myself", "don't want to live",
	}

	defaultHighRiskKeywords = []string{
		"chest pain", "chest tightness", "radiating to left arm",
		"can't breathe", "cannot breathe", "shortness of breath", "gasping",
		"sudden severe headache", "worst headache", "slurred speech",
		"numb on one side", "face drooping", "loss of vision",
		"coughing blood", "vomiting blood", "blood in stool", "heavy bleeding",
		"seizure", "convulsion", "unconscious", "fainted",
		"severe abdominal pain", "throat swelling", "severe allergic",
	}

	defaultModerateKeywords = []string{
		"persistent pain", "recurring", "getting worse",
		"fever", "high blood pressure", "low blood pressure", "palpitations",
		"dizzy", "vertigo", "nausea",
		"rash", "allergy", "swelling",
		"severe insomnia", "anxiety", "depressed",
	}
)

// ConsultConfig is the tuning surface of the consultation engine. Keyword
// lists may be overridden wholesale through the environment; empty means
// "use the built-in list".
type ConsultConfig struct {
	MaxFollowUps      int `env:"CONSULT_MAX_FOLLOW_UPS" envDefault:"3"`
	MaxRetrievalLoops int `env:"CONSULT_MAX_RETRIEVAL_LOOPS" envDefault:"3"`
	MinPassages       int `env:"CONSULT_MIN_PASSAGES" envDefault:"1"`
	SeverityEscalate  int `env:"CONSULT_SEVERITY_THRESHOLD" envDefault:"7"`

	CriticalWords []string `env:"CONSULT_CRITICAL_KEYWORDS" envSeparator:","`
	HighRiskWords []string `env:"CONSULT_HIGH_RISK_KEYWORDS" envSeparator:","`
	ModerateWords []string `env:"CONSULT_MODERATE_KEYWORDS" envSeparator:","`

	// Exhausted controls the tie-break when grading still fails after the
	// retry cap with web search already used: "summarize" answers from the
	// best available passages, "apologize" returns the low-confidence
	// notice without a generation call.
	Exhausted string `env:"CONSULT_EXHAUSTED_POLICY" envDefault:"summarize"`
}

func NewConsultConfig(ctx context.Context) *ConsultConfig {
	c := &ConsultConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Consult config")
	}
	return c
}

func (c ConsultConfig) FollowUpCeiling() int    { return c.MaxFollowUps }
func (c ConsultConfig) RetrievalCap() int       { return c.MaxRetrievalLoops }
func (c ConsultConfig) MinPassingPassages() int { return c.MinPassages }
func (c ConsultConfig) SeverityThreshold() int  { return c.SeverityEscalate }
func (c ConsultConfig) ExhaustedPolicy() string { return c.Exhausted }

func (c ConsultConfig) CriticalKeywords() []string {
	if len(c.CriticalWords) > 0 {
		return c.CriticalWords
	}
	return defaultCriticalKeywords
}

func (c ConsultConfig) HighRiskKeywords() []string {
	if len(c.HighRiskWords) > 0 {
		return c.HighRiskWords
	}
	return defaultHighRiskKeywords
}

func (c ConsultConfig) ModerateKeywords() []string {
	if len(c.ModerateWords) > 0 {
		return c.ModerateWords
	}
	return defaultModerateKeywords
}
