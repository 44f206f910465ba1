package qualification

import (
	"errors"
	"fmt"
)

// Kind is the answer widget a question is rendered with.
type Kind string

const (
	KindSingleSelect Kind = "single-select"
	KindBoolean      Kind = "boolean"
	KindFreeText     Kind = "free-text"
)

// Predicate decides from the answers so far whether a question is shown.
// Predicates must be pure: they only read the snapshot they are given.
type Predicate func(Responses) bool

// Question is one static step of the questionnaire.
type Question struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Prompt   string   `json:"prompt"`
	HelpText string   `json:"helpText,omitempty"`
	Category string   `json:"category,omitempty"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`

	DisqualifyingAnswers   []string  `json:"-"`
	DisqualificationReason string    `json:"-"`
	VisibleWhen            Predicate `json:"-"`
}

// IsDisqualifying reports whether answer ends the flow on this question.
func (q Question) IsDisqualifying(answer string) bool {
	return contains(q.DisqualifyingAnswers, answer)
}

// Accepts reports whether answer is an allowed value. Free text accepts
// anything; select and boolean questions only their options.
func (q Question) Accepts(answer string) bool {
	if q.Kind == KindFreeText {
		return true
	}
	return contains(q.Options, answer)
}

func (q Question) visibleFor(r Responses) bool {
	if q.VisibleWhen == nil {
		return true
	}
	return q.VisibleWhen(r)
}

// AnswerIs is the common visibility rule "show when question id was answered v".
func AnswerIs(id, v string) Predicate {
	return func(r Responses) bool {
		return r.Value(id) == v
	}
}

var (
	yesNo = []string{"Yes", "No"}

	errEmptyQuestionSet = errors.New("question set is empty")
)

// QuestionSet is the ordered, immutable list of question definitions. It is
// safe to share between flows.
type QuestionSet struct {
	questions []Question
	index     map[string]int
}

// NewQuestionSet validates qs and freezes it. Boolean questions without
// options get Yes/No.
func NewQuestionSet(qs []Question) (*QuestionSet, error) {
	if len(qs) == 0 {
		return nil, errEmptyQuestionSet
	}
	set := &QuestionSet{
		questions: make([]Question, len(qs)),
		index:     make(map[string]int, len(qs)),
	}
	for i, q := range qs {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has no id", i)
		}
		if _, dup := set.index[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		switch q.Kind {
		case KindBoolean:
			if len(q.Options) == 0 {
				q.Options = yesNo
			}
		case KindSingleSelect:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("question %q: single-select needs options", q.ID)
			}
		case KindFreeText:
		default:
			return nil, fmt.Errorf("question %q: unknown kind %q", q.ID, q.Kind)
		}
		for _, a := range q.DisqualifyingAnswers {
			if !q.Accepts(a) {
				return nil, fmt.Errorf("question %q: disqualifying answer %q is not an option", q.ID, a)
			}
		}
		q.Options = append([]string(nil), q.Options...)
		q.DisqualifyingAnswers = append([]string(nil), q.DisqualifyingAnswers...)
		set.questions[i] = q
		set.index[q.ID] = i
	}
	return set, nil
}

// MustQuestionSet is NewQuestionSet for static definitions.
func MustQuestionSet(qs []Question) *QuestionSet {
	set, err := NewQuestionSet(qs)
	if err != nil {
		panic(err)
	}
	return set
}

// All returns every question in order.
func (s *QuestionSet) All() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Lookup finds a question by id.
func (s *QuestionSet) Lookup(id string) (Question, bool) {
	i, ok := s.index[id]
	if !ok {
		return Question{}, false
	}
	return s.questions[i], true
}

// Visible filters the static list by each question's predicate against r.
func (s *QuestionSet) Visible(r Responses) []Question {
	out := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.visibleFor(r) {
			out = append(out, q)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
