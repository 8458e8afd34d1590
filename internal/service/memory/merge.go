package memory

import (
	"strconv"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
)

// MergeIntoProfile applies extracted facts to a profile. Scalar fields
// take the most recent value; set-valued fields are unioned and never
// shrink, so a previously disclosed allergy cannot be forgotten.
func MergeIntoProfile(p *core.Profile, facts []Fact) {
	for _, f := range facts {
		value := strings.TrimSpace(f.Value)

		switch f.Field {
		case FieldSex:
			switch strings.ToLower(value) {
			case "male", "m":
				p.Sex = core.SexMale
			case "female", "f":
				p.Sex = core.SexFemale
			}
		case FieldAge:
			if age, err := strconv.Atoi(value); err == nil && age > 0 && age <= 120 {
				p.Age = age
			}
		case FieldHeight:
			if h, err := strconv.ParseFloat(value, 64); err == nil && h >= 50 && h <= 250 {
				p.Height = h
			}
		case FieldWeight:
			if w, err := strconv.ParseFloat(value, 64); err == nil && w >= 20 && w <= 300 {
				p.Weight = w
			}
		case FieldAllergy:
			p.Allergies = unionAppend(p.Allergies, value)
		case FieldChronicCondition:
			p.ChronicConditions = unionAppend(p.ChronicConditions, value)
		case FieldFamilyHistory:
			p.FamilyHistory = unionAppend(p.FamilyHistory, value)
		case FieldMedication:
			p.Medications = unionAppend(p.Medications, value)
		}
	}
}

// unionAppend adds value unless an entry already matches it
// case-insensitively.
func unionAppend(set []string, value string) []string {
	for _, existing := range set {
		if strings.EqualFold(existing, value) {
			return set
		}
	}
	return append(set, value)
}
