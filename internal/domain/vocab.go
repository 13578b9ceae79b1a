package domain

import "strings"

// Canonical vocabulary values for stranding records. These mirror the
// controlled lists used by the curation team; anything outside a list is
// mapped to the vocabulary's fallback value rather than rejected.
const (
	IncidentTypeStranding        = "Stranding"
	IncidentTypeEntanglement     = "Entanglement"
	IncidentTypeVesselStrike     = "Vessel strike"
	IncidentTypeUnusualMortality = "Unusual mortality event"
	IncidentTypeHauledOut        = "Hauled-out"

	SexMale    = "Male"
	SexFemale  = "Female"
	SexUnknown = "Unknown"

	ConditionAlive                 = "Alive"
	ConditionFreshDead             = "Fresh dead"
	ConditionModerateDecomposition = "Moderate decomposition"
	ConditionAdvancedDecomposition = "Advanced decomposition"
	ConditionMummified             = "Mummified / skeletal"
	ConditionUnknown               = "Unknown"

	OutcomeRestrained = "Restrained"
	OutcomeReleased   = "Released"
	OutcomeEuthanised = "Euthanised"
	OutcomeDiedOnSite = "Died on site"
	OutcomeSalvaged   = "Salvaged"
	OutcomeUnknown    = "Unknown"
)

// Vocabulary maps raw spreadsheet tokens to canonical values. Lookups that
// miss return the fallback silently; the import pipeline must never fail a
// row because a categorical cell used an unrecognised code.
type Vocabulary struct {
	terms    map[string]string
	fallback string
	foldCase bool
}

// NewVocabulary builds an immutable vocabulary. The terms map is copied so
// callers cannot mutate the lookup after construction.
func NewVocabulary(terms map[string]string, fallback string, foldCase bool) Vocabulary {
	copied := make(map[string]string, len(terms))
	for key, value := range terms {
		if foldCase {
			key = strings.ToLower(key)
		}
		copied[strings.TrimSpace(key)] = value
	}
	return Vocabulary{terms: copied, fallback: fallback, foldCase: foldCase}
}

// Canonical resolves a raw cell value to its canonical form, falling back to
// the vocabulary default when the value has no mapping.
func (v Vocabulary) Canonical(raw string) string {
	key := strings.TrimSpace(raw)
	if v.foldCase {
		key = strings.ToLower(key)
	}
	if canonical, ok := v.terms[key]; ok {
		return canonical
	}
	return v.fallback
}

// Fallback returns the vocabulary's default value.
func (v Vocabulary) Fallback() string {
	return v.fallback
}

// Values returns the set of canonical values the vocabulary can produce,
// fallback included. Used for membership validation at write time.
func (v Vocabulary) Values() map[string]bool {
	values := map[string]bool{v.fallback: true}
	for _, canonical := range v.terms {
		values[canonical] = true
	}
	return values
}

// Vocabularies bundles the categorical lookups the normalizer needs.
type Vocabularies struct {
	IncidentType Vocabulary
	Sex          Vocabulary
	Condition    Vocabulary
	Outcome      Vocabulary
}

// DefaultVocabularies returns the standard stranding vocabularies. Incident
// type lookups are case folded; the remaining lists match on trimmed input.
func DefaultVocabularies() Vocabularies {
	return Vocabularies{
		IncidentType: NewVocabulary(map[string]string{
			"stranding":     IncidentTypeStranding,
			"entanglement":  IncidentTypeEntanglement,
			"vessel strike": IncidentTypeVesselStrike,
			"boat strike":   IncidentTypeVesselStrike,
			"ume":           IncidentTypeUnusualMortality,
			"hauled-out":    IncidentTypeHauledOut,
			"hauled out":    IncidentTypeHauledOut,
		}, IncidentTypeStranding, true),
		Sex: NewVocabulary(map[string]string{
			"M":      SexMale,
			"Male":   SexMale,
			"F":      SexFemale,
			"Female": SexFemale,
			"U":      SexUnknown,
		}, SexUnknown, false),
		Condition: NewVocabulary(map[string]string{
			"D1":         ConditionAlive,
			"D2":         ConditionFreshDead,
			"D3":         ConditionModerateDecomposition,
			"D4":         ConditionAdvancedDecomposition,
			"D5":         ConditionMummified,
			"Alive":      ConditionAlive,
			"Fresh dead": ConditionFreshDead,
		}, ConditionUnknown, false),
		Outcome: NewVocabulary(map[string]string{
			"Restrained":   OutcomeRestrained,
			"Released":     OutcomeReleased,
			"Euthanised":   OutcomeEuthanised,
			"Euthanased":   OutcomeEuthanised,
			"Died on site": OutcomeDiedOnSite,
			"Died":         OutcomeDiedOnSite,
			"Salvaged":     OutcomeSalvaged,
		}, OutcomeUnknown, false),
	}
}
