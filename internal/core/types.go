package core

const (
	AppName       = "HealthBot"
	AppUserAgent  = "HealthBot-Advisor/0.1"
	AppRepository = "https://github.com/sandevgo/healthbot"
	AppVersion    = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RiskLevel is the ordinal urgency classification of a consultation.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// AtLeast reports whether l is at or above the given level.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[l] >= riskOrder[other]
}

// Max returns the more severe of the two levels. An unset level loses
// to any set one.
func (l RiskLevel) Max(other RiskLevel) RiskLevel {
	if l == "" {
		return other
	}
	if riskOrder[other] > riskOrder[l] {
		return other
	}
	return l
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)
