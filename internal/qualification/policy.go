package qualification

import (
	"fmt"
	"strings"
)

// Matcher reports whether term occurs in free text.
type Matcher func(text, term string) bool

// SubstringMatcher is a case-insensitive substring test. "nigeria" matches
// "Nigeria and Niger"; "niger" also matches "Nigeria".
func SubstringMatcher(text, term string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

// Rule names used by the default policy.
const (
	RuleTravel     = "travel"
	RuleMedication = "medication"
)

// FreeTextRule flags a free-text answer containing one of Terms. When
// GateQuestion is set the rule only applies if it was answered GateAnswer.
// Reason is a format string receiving the matched term.
type FreeTextRule struct {
	Name         string
	GateQuestion string
	GateAnswer   string
	TextQuestion string
	Terms        []string
	Reason       string
}

func (r FreeTextRule) match(resp Responses, m Matcher) (string, bool) {
	if r.GateQuestion != "" && resp.Value(r.GateQuestion) != r.GateAnswer {
		return "", false
	}
	text, ok := resp.Get(r.TextQuestion)
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, term := range r.Terms {
		if m(text, term) {
			return term, true
		}
	}
	return "", false
}

// Finding is the first rule that flagged a complete response set.
type Finding struct {
	Rule   string
	Term   string
	Reason string
}

// ScreeningPolicy holds the final-pass free-text rules, evaluated in order.
type ScreeningPolicy struct {
	Rules []FreeTextRule
	Match Matcher
}

// DefaultPolicy screens travel destinations then medications.
func DefaultPolicy() ScreeningPolicy {
	return ScreeningPolicy{
		Rules: []FreeTextRule{
			{
				Name:         RuleTravel,
				GateQuestion: QTravelHistory,
				GateAnswer:   "Yes",
				TextQuestion: QTravelDetails,
				Terms:        []string{"india", "pakistan", "cambodia", "nigeria", "uganda", "kenya", "brazil", "haiti"},
				Reason:       "Recent travel to %s may temporarily disqualify you from donating at this time.",
			},
			{
				Name:         RuleMedication,
				GateQuestion: QTakingMedications,
				GateAnswer:   "Yes",
				TextQuestion: QMedicationList,
				Terms:        []string{"blood thinner", "warfarin", "accutane", "finasteride", "antibiotic"},
				Reason:       "Your current medication (containing %s) may temporarily disqualify you from donating.",
			},
		},
		Match: SubstringMatcher,
	}
}

// WithTerms returns a copy of p whose rule named name uses terms instead.
// An empty terms list leaves the rule unchanged.
func (p ScreeningPolicy) WithTerms(name string, terms []string) ScreeningPolicy {
	if len(terms) == 0 {
		return p
	}
	rules := make([]FreeTextRule, len(p.Rules))
	copy(rules, p.Rules)
	for i := range rules {
		if rules[i].Name == name {
			rules[i].Terms = append([]string(nil), terms...)
		}
	}
	p.Rules = rules
	return p
}

// Screen runs the rules against a complete response set and returns the
// first finding.
func (p ScreeningPolicy) Screen(resp Responses) (Finding, bool) {
	m := p.Match
	if m == nil {
		m = SubstringMatcher
	}
	for _, r := range p.Rules {
		if term, ok := r.match(resp, m); ok {
			return Finding{Rule: r.Name, Term: term, Reason: fmt.Sprintf(r.Reason, term)}, true
		}
	}
	return Finding{}, false
}
