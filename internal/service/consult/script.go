package consult

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
)

// QuestionType selects the validation applied to an answer.
type QuestionType string

const (
	TypeChoice      QuestionType = "choice"
	TypeMultiChoice QuestionType = "multi_choice"
	TypeNumber      QuestionType = "number"
	TypeText        QuestionType = "text"
)

// Question is one scripted intake prompt. Important questions feed the
// realtime risk scan with their answer.
type Question struct {
	Field     string
	Prompt    string
	Type      QuestionType
	Options   []string
	Min, Max  float64
	Important bool
}

// noneAnswers let the user skip a history question.
var noneAnswers = map[string]bool{
	"none": true, "no": true, "nothing": true, "n/a": true, "-": true,
}

// script is the fixed intake questionnaire per stage. FollowUp questions
// are generated, not scripted, and RiskAssess/Advise take no input.
var script = map[core.Stage][]Question{
	core.StageBasicInfo: {
		{Field: "sex", Prompt: "What is your sex?", Type: TypeChoice, Options: []string{"male", "female"}},
		{Field: "age", Prompt: "How old are you?", Type: TypeNumber, Min: 0, Max: 120},
		{Field: "height", Prompt: "What is your height in centimeters (cm)?", Type: TypeNumber, Min: 50, Max: 250},
		{Field: "weight", Prompt: "What is your weight in kilograms (kg)?", Type: TypeNumber, Min: 20, Max: 300},
	},
	core.StageHistoryIntake: {
		{
			Field:   "family_history",
			Prompt:  "Do any immediate family members (parents, siblings) have these conditions? Pick any that apply, or answer 'none'",
			Type:    TypeMultiChoice,
			Options: []string{"hypertension", "diabetes", "heart disease", "cancer", "stroke", "other"},
		},
		{Field: "allergies", Prompt: "Do you have any drug or food allergies? Describe them, or answer 'none'", Type: TypeText},
		{
			Field:   "chronic_conditions",
			Prompt:  "Do you have any of these chronic conditions? Pick any that apply, or answer 'none'",
			Type:    TypeMultiChoice,
			Options: []string{"hypertension", "diabetes", "high cholesterol", "heart disease", "asthma", "other"},
		},
		{Field: "medications", Prompt: "What medication are you currently taking, if any? Answer 'none' if nothing", Type: TypeText},
	},
	core.StageIntentSelect: {
		{
			Field:   "intent",
			Prompt:  "What brings you here today?",
			Type:    TypeChoice,
			Options: []string{"a new symptom", "an ongoing condition", "general health advice"},
		},
	},
	core.StageSymptomDescribe: {
		{Field: "chief_complaint", Prompt: "Please describe the main problem you want to consult about today.", Type: TypeText, Important: true},
		{Field: "symptom_location", Prompt: "Where in your body is the problem located? Answer 'none' if not applicable", Type: TypeText},
		{
			Field:   "symptom_duration",
			Prompt:  "How long has this been going on?",
			Type:    TypeChoice,
			Options: []string{"it started today", "1-3 days", "about a week", "over a month", "a long time"},
		},
		{Field: "severity", Prompt: "On a scale of 1-10 (1 mildest, 10 worst), how severe is it?", Type: TypeNumber, Min: 1, Max: 10},
	},
}

// validate checks an answer against the question shape. Choice answers
// accept either the option text or its 1-based number.
func (q Question) validate(answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", core.NewValidationError(q.Field, "empty answer")
	}

	switch q.Type {
	case TypeChoice:
		if idx, err := strconv.Atoi(answer); err == nil {
			if idx >= 1 && idx <= len(q.Options) {
				return q.Options[idx-1], nil
			}
			return "", core.NewValidationError(q.Field, fmt.Sprintf("pick a number between 1 and %d", len(q.Options)))
		}
		for _, opt := range q.Options {
			if strings.EqualFold(answer, opt) {
				return opt, nil
			}
		}
		return "", core.NewValidationError(q.Field, "answer is not one of the options")

	case TypeMultiChoice:
		if noneAnswers[strings.ToLower(answer)] {
			return "", nil
		}
		var picked []string
		for _, part := range strings.Split(answer, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if idx, err := strconv.Atoi(part); err == nil && idx >= 1 && idx <= len(q.Options) {
				picked = append(picked, q.Options[idx-1])
				continue
			}
			// Free entries are allowed alongside the listed options.
			picked = append(picked, part)
		}
		if len(picked) == 0 {
			return "", core.NewValidationError(q.Field, "no valid selection")
		}
		return strings.Join(picked, ", "), nil

	case TypeNumber:
		num, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return "", core.NewValidationError(q.Field, "expected a number")
		}
		if num < q.Min || num > q.Max {
			return "", core.NewValidationError(q.Field, fmt.Sprintf("expected a value between %.0f and %.0f", q.Min, q.Max))
		}
		return strconv.FormatFloat(num, 'f', -1, 64), nil

	default:
		return answer, nil
	}
}

// isNone reports whether a free-text history answer means "nothing".
func isNone(answer string) bool {
	return noneAnswers[strings.ToLower(strings.TrimSpace(answer))]
}
