package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionKind discriminates the question variants.
type QuestionKind string

const (
	KindFillIn         QuestionKind = "FillIn"
	KindMultipleChoice QuestionKind = "MultipleChoice"
)

// Question is one gradable item of a quiz. Exactly one of FillIn and
// MultipleChoice is set, matching Kind.
type Question struct {
	Kind                 QuestionKind
	QuestionHTML         string
	SupplementalInfoHTML string

	FillIn         *FillIn
	MultipleChoice *MultipleChoice
}

// FillIn is a free-text question.
type FillIn struct {
	Answer             string
	IgnoreCase         bool
	AlternativeAnswers []string
}

// MultipleChoice is an indexed-selection question.
type MultipleChoice struct {
	Choices            []string
	CorrectAnswerIndex int
}

// NewFillIn builds a FillIn question with case-insensitive grading.
func NewFillIn(questionHTML, answer string, alternatives ...string) Question {
	if alternatives == nil {
		alternatives = []string{}
	}
	return Question{
		Kind:         KindFillIn,
		QuestionHTML: questionHTML,
		FillIn: &FillIn{
			Answer:             answer,
			IgnoreCase:         true,
			AlternativeAnswers: alternatives,
		},
	}
}

// NewMultipleChoice builds a MultipleChoice question.
func NewMultipleChoice(questionHTML string, correct int, choices ...string) Question {
	return Question{
		Kind:         KindMultipleChoice,
		QuestionHTML: questionHTML,
		MultipleChoice: &MultipleChoice{
			Choices:            choices,
			CorrectAnswerIndex: correct,
		},
	}
}

// Validate checks the variant invariants of an authored question.
func (q Question) Validate() error {
	switch q.Kind {
	case KindFillIn:
		if q.FillIn == nil {
			return fmt.Errorf("%w: fill-in question without answer data", ErrInvalidQuestion)
		}
	case KindMultipleChoice:
		mc := q.MultipleChoice
		if mc == nil || len(mc.Choices) == 0 {
			return fmt.Errorf("%w: multiple choice question needs at least one choice", ErrInvalidQuestion)
		}
		if mc.CorrectAnswerIndex < 0 || mc.CorrectAnswerIndex >= len(mc.Choices) {
			return fmt.Errorf("%w: correct answer index %d out of range", ErrInvalidQuestion, mc.CorrectAnswerIndex)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedQuestionType, q.Kind)
	}
	return nil
}

// SubmissionResult is the outcome of grading one response.
type SubmissionResult struct {
	Success              bool     `json:"success"`
	IsCorrect            bool     `json:"isCorrect"`
	CorrectAnswer        *string  `json:"correctAnswer,omitempty"`
	CorrectAnswerIndex   *int     `json:"correctAnswerIndex,omitempty"`
	AlternativeAnswers   []string `json:"alternativeAnswers,omitempty"`
	SupplementalInfoHTML string   `json:"supplementalInfoHtml,omitempty"`
}

// Submit grades a response against q. It has no side effects.
func Submit(q Question, r Response) (SubmissionResult, error) {
	result := SubmissionResult{
		Success:              true,
		SupplementalInfoHTML: q.SupplementalInfoHTML,
	}

	switch q.Kind {
	case KindFillIn:
		if q.FillIn == nil {
			return SubmissionResult{}, fmt.Errorf("%w: fill-in question without answer data", ErrInvalidQuestion)
		}
		fi := q.FillIn
		answer := fi.Answer
		result.CorrectAnswer = &answer
		if text, ok := r.Text(); ok {
			result.IsCorrect = fi.matches(text)
		}
		if !result.IsCorrect {
			result.AlternativeAnswers = append([]string{}, fi.AlternativeAnswers...)
		}
	case KindMultipleChoice:
		if q.MultipleChoice == nil {
			return SubmissionResult{}, fmt.Errorf("%w: multiple choice question without choices", ErrInvalidQuestion)
		}
		correct := q.MultipleChoice.CorrectAnswerIndex
		result.CorrectAnswerIndex = &correct
		if idx, ok := r.Index(); ok {
			result.IsCorrect = idx == correct
		}
	default:
		return SubmissionResult{}, fmt.Errorf("%w: %q", ErrUnrecognizedQuestionType, q.Kind)
	}
	return result, nil
}

func (f *FillIn) matches(response string) bool {
	fold := func(s string) string { return s }
	if f.IgnoreCase {
		fold = strings.ToLower
	}
	got := fold(response)
	if got == fold(f.Answer) {
		return true
	}
	for _, alt := range f.AlternativeAnswers {
		if got == fold(alt) {
			return true
		}
	}
	return false
}

// questionJSON is the flat document form of a question.
type questionJSON struct {
	Kind                 QuestionKind `json:"kind"`
	QuestionHTML         string       `json:"questionHtml"`
	SupplementalInfoHTML string       `json:"supplementalInfoHtml,omitempty"`

	Answer             *string  `json:"answer,omitempty"`
	IgnoreCase         *bool    `json:"ignoreCase,omitempty"`
	AlternativeAnswers []string `json:"alternativeAnswers,omitempty"`

	Choices            []string `json:"choices,omitempty"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{
		Kind:                 q.Kind,
		QuestionHTML:         q.QuestionHTML,
		SupplementalInfoHTML: q.SupplementalInfoHTML,
	}
	switch {
	case q.Kind == KindFillIn && q.FillIn != nil:
		answer, ignoreCase := q.FillIn.Answer, q.FillIn.IgnoreCase
		out.Answer = &answer
		out.IgnoreCase = &ignoreCase
		out.AlternativeAnswers = q.FillIn.AlternativeAnswers
		if out.AlternativeAnswers == nil {
			out.AlternativeAnswers = []string{}
		}
	case q.Kind == KindMultipleChoice && q.MultipleChoice != nil:
		idx := q.MultipleChoice.CorrectAnswerIndex
		out.Choices = q.MultipleChoice.Choices
		out.CorrectAnswerIndex = &idx
	}
	return json.Marshal(out)
}

// UnmarshalJSON keeps only the fields of the active kind. An unknown kind is
// preserved so grading can report it instead of failing the whole document.
func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*q = Question{
		Kind:                 in.Kind,
		QuestionHTML:         in.QuestionHTML,
		SupplementalInfoHTML: in.SupplementalInfoHTML,
	}
	switch in.Kind {
	case KindFillIn:
		fi := &FillIn{IgnoreCase: true, AlternativeAnswers: in.AlternativeAnswers}
		if in.Answer != nil {
			fi.Answer = *in.Answer
		}
		if in.IgnoreCase != nil {
			fi.IgnoreCase = *in.IgnoreCase
		}
		if fi.AlternativeAnswers == nil {
			fi.AlternativeAnswers = []string{}
		}
		q.FillIn = fi
	case KindMultipleChoice:
		mc := &MultipleChoice{Choices: in.Choices}
		if in.CorrectAnswerIndex != nil {
			mc.CorrectAnswerIndex = *in.CorrectAnswerIndex
		}
		q.MultipleChoice = mc
	}
	return nil
}
