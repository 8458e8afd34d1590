package core

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// Profile is the permanent per-user health record. It is created on first
// contact and mutated only by consolidation at session boundaries.
type Profile struct {
	UserHash  string    `json:"user_hash"`
	CreatedAt time.Time `json:"created_at"`
	LastVisit time.Time `json:"last_visit"`

	Sex    Sex     `json:"sex,omitempty"`
	Age    int     `json:"age,omitempty"`
	Height float64 `json:"height,omitempty"` // cm
	Weight float64 `json:"weight,omitempty"` // kg

	Allergies         []string `json:"allergies,omitempty"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
	FamilyHistory     []string `json:"family_history,omitempty"`
	Medications       []string `json:"medications,omitempty"`

	Sessions []SessionSummary `json:"sessions,omitempty"`
}

// SessionSummary is the only trace of a consultation that survives
// consolidation: cause, conclusion, risk and date.
type SessionSummary struct {
	SessionID  string    `json:"session_id"`
	Cause      string    `json:"cause"`
	Conclusion string    `json:"conclusion"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Date       time.Time `json:"date"`
}

// HashIdentifier derives the deterministic user identity from a stable
// external identifier such as a phone number. The same identifier always
// resolves to the same profile key.
func HashIdentifier(identifier string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(identifier)))
	return hex.EncodeToString(sum[:])
}

// HasBasicInfo reports whether the demographic block is complete enough to
// skip the BasicInfo intake stage.
func (p *Profile) HasBasicInfo() bool {
	return p.Sex != "" && p.Age > 0 && p.Height > 0 && p.Weight > 0
}

// BMI returns the body mass index, or 0 when height/weight are unset.
func (p *Profile) BMI() float64 {
	if p.Height <= 0 || p.Weight <= 0 {
		return 0
	}
	m := p.Height / 100
	return round1(p.Weight / (m * m))
}

// BMR returns the basal metabolic rate (Mifflin-St Jeor), or 0 when the
// demographic block is incomplete.
func (p *Profile) BMR() float64 {
	if !p.HasBasicInfo() {
		return 0
	}
	base := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Sex == SexMale {
		return round1(base + 5)
	}
	return round1(base - 161)
}

// IdealWeight returns the Devine ideal body weight in kg, or 0 when height
// or sex are unset.
func (p *Profile) IdealWeight() float64 {
	if p.Height <= 0 || p.Sex == "" {
		return 0
	}
	inchesOver5ft := (p.Height - 152.4) / 2.54
	if inchesOver5ft < 0 {
		inchesOver5ft = 0
	}
	if p.Sex == SexMale {
		return round1(50 + 2.3*inchesOver5ft)
	}
	return round1(45.5 + 2.3*inchesOver5ft)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
