package grading

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseJSON(t *testing.T) {
	body := `{
		"question_1": 12,
		"question_2": "7",
		"question_3": ["1", 2, {"x": 1}, null],
		"question_4": {"nested": true},
		"question_5": true,
		"question_6_match_0": "b"
	}`
	got, err := ParseJSON([]byte(body))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := AnswerBundle{
		"question_1":         {"12"},
		"question_2":         {"7"},
		"question_3":         {"1", "2"},
		"question_6_match_0": {"b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseJSONRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1,2]`, `"x"`, `null`, `{`} {
		if _, err := ParseJSON([]byte(body)); err == nil {
			t.Errorf("ParseJSON(%s) should fail", body)
		}
	}
}

func TestFromFormKeepsRepeatedValues(t *testing.T) {
	b := FromForm(url.Values{"question_9": {"3", "4"}})
	if got := b.All("question_9"); !reflect.DeepEqual(got, []string{"3", "4"}) {
		t.Errorf("All = %v", got)
	}
	if v, ok := b.First("question_9"); !ok || v != "3" {
		t.Errorf("First = %q %v", v, ok)
	}
	if _, ok := b.First("question_10"); ok {
		t.Error("missing key reported present")
	}
}

func TestFieldNames(t *testing.T) {
	if QuestionField(42) != "question_42" {
		t.Error(QuestionField(42))
	}
	if MatchField(42, 3) != "question_42_match_3" {
		t.Error(MatchField(42, 3))
	}
}
