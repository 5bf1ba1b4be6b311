package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestFillInIgnoreCase(t *testing.T) {
	q := NewFillIn("Who unified Germany?", "Bismarck", "Otto von Bismarck")

	cases := []struct {
		response string
		correct  bool
	}{
		{"Bismarck", true},
		{"bisMARCK", true},
		{"OTTO VON BISMARCK", true},
		{" Bismarck", false},
		{"Bismark", false},
		{"", false},
	}
	for _, tc := range cases {
		res, err := Submit(q, TextResponse(tc.response))
		if err != nil {
			t.Fatalf("submit %q: %v", tc.response, err)
		}
		if res.IsCorrect != tc.correct {
			t.Fatalf("response %q: expected correct=%v, got %v", tc.response, tc.correct, res.IsCorrect)
		}
		if !res.Success {
			t.Fatalf("expected success flag on graded result")
		}
	}
}

func TestFillInCaseSensitive(t *testing.T) {
	q := NewFillIn("Who unified Germany?", "Bismarck", "Otto")
	q.FillIn.IgnoreCase = false

	res, err := Submit(q, TextResponse("bisMARCK"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.IsCorrect {
		t.Fatalf("expected case-sensitive mismatch to be incorrect")
	}
	if res.CorrectAnswer == nil || *res.CorrectAnswer != "Bismarck" {
		t.Fatalf("expected correct answer in result, got %+v", res.CorrectAnswer)
	}
	if !reflect.DeepEqual(res.AlternativeAnswers, []string{"Otto"}) {
		t.Fatalf("expected alternatives on incorrect result, got %v", res.AlternativeAnswers)
	}

	res, _ = Submit(q, TextResponse("Otto"))
	if !res.IsCorrect {
		t.Fatalf("expected exact alternative to be correct")
	}
	if res.AlternativeAnswers != nil {
		t.Fatalf("expected no alternatives on correct result, got %v", res.AlternativeAnswers)
	}
	if res.CorrectAnswer == nil {
		t.Fatalf("expected correct answer even when correct")
	}
}

func TestFillInRejectsIndexResponse(t *testing.T) {
	q := NewFillIn("2 + 2?", "4")
	res, err := Submit(q, IndexResponse(4))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.IsCorrect {
		t.Fatalf("expected index response to a fill-in question to be incorrect")
	}
}

func TestMultipleChoiceStrictIndex(t *testing.T) {
	q := NewMultipleChoice("Pick B", 1, "A", "B", "C")
	q.SupplementalInfoHTML = "<p>B is second</p>"

	res, err := Submit(q, IndexResponse(1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.IsCorrect || res.CorrectAnswerIndex == nil || *res.CorrectAnswerIndex != 1 {
		t.Fatalf("expected correct result with index 1, got %+v", res)
	}
	if res.SupplementalInfoHTML != "<p>B is second</p>" {
		t.Fatalf("expected supplemental info, got %q", res.SupplementalInfoHTML)
	}

	for _, r := range []Response{IndexResponse(0), IndexResponse(2), TextResponse("1"), {}} {
		res, err := Submit(q, r)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if res.IsCorrect {
			t.Fatalf("expected %+v to be incorrect", r)
		}
		if res.CorrectAnswerIndex == nil {
			t.Fatalf("expected correct index on incorrect result")
		}
	}
}

func TestSubmitUnrecognizedKind(t *testing.T) {
	q := Question{Kind: "TrueFalse", QuestionHTML: "?"}
	if _, err := Submit(q, TextResponse("true")); !errors.Is(err, ErrUnrecognizedQuestionType) {
		t.Fatalf("expected unrecognized type error, got %v", err)
	}
}

func TestQuestionValidate(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want error
	}{
		{"fill in", NewFillIn("q", "a"), nil},
		{"mc", NewMultipleChoice("q", 0, "a"), nil},
		{"mc no choices", NewMultipleChoice("q", 0), ErrInvalidQuestion},
		{"mc index high", NewMultipleChoice("q", 2, "a", "b"), ErrInvalidQuestion},
		{"mc index negative", NewMultipleChoice("q", -1, "a"), ErrInvalidQuestion},
		{"fill in missing payload", Question{Kind: KindFillIn}, ErrInvalidQuestion},
		{"unknown kind", Question{Kind: "Essay"}, ErrUnrecognizedQuestionType},
	}
	for _, tc := range cases {
		err := tc.q.Validate()
		if tc.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestQuestionJSONDropsInactiveVariant(t *testing.T) {
	raw := `{"kind":"MultipleChoice","questionHtml":"<b>Q</b>","choices":["x","y"],"correctAnswerIndex":1,"answer":"stale"}`
	var q Question
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.FillIn != nil {
		t.Fatalf("expected fill-in payload to be dropped")
	}
	if q.MultipleChoice == nil || q.MultipleChoice.CorrectAnswerIndex != 1 {
		t.Fatalf("unexpected multiple choice payload %+v", q.MultipleChoice)
	}

	out, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	_ = json.Unmarshal(out, &fields)
	if _, ok := fields["answer"]; ok {
		t.Fatalf("expected no answer field in %s", out)
	}
}

func TestFillInIgnoreCaseDefaultsTrue(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(`{"kind":"FillIn","questionHtml":"q","answer":"Paris"}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.FillIn == nil || !q.FillIn.IgnoreCase {
		t.Fatalf("expected ignoreCase to default to true, got %+v", q.FillIn)
	}
	if q.FillIn.AlternativeAnswers == nil {
		t.Fatalf("expected empty alternatives slice")
	}

	if err := json.Unmarshal([]byte(`{"kind":"FillIn","questionHtml":"q","answer":"Paris","ignoreCase":false}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.FillIn.IgnoreCase {
		t.Fatalf("expected explicit ignoreCase=false to be kept")
	}
}
