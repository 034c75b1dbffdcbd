package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// AnswerBundle maps submitted field names to their values. Fields posted
// more than once (multiple choice) carry several values in submission order.
type AnswerBundle map[string][]string

// QuestionField is the field name holding the answer for a question.
func QuestionField(questionID int64) string {
	return "question_" + strconv.FormatInt(questionID, 10)
}

// MatchField is the field name holding the answer for one matching pair.
func MatchField(questionID int64, pairIndex int) string {
	return fmt.Sprintf("question_%d_match_%d", questionID, pairIndex)
}

// FromForm builds a bundle from url-encoded form values.
func FromForm(values url.Values) AnswerBundle {
	b := make(AnswerBundle, len(values))
	for k, vs := range values {
		b[k] = append([]string(nil), vs...)
	}
	return b
}

// ParseJSON builds a bundle from a JSON object. String and number values
// are kept, arrays contribute their string and number elements, and any
// other value is dropped. Only a body that is not a JSON object is an error.
func ParseJSON(data []byte) (AnswerBundle, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("decode answers: body is not an object")
	}

	b := make(AnswerBundle, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case []any:
			for _, el := range tv {
				if s, ok := scalar(el); ok {
					b[k] = append(b[k], s)
				}
			}
		default:
			if s, ok := scalar(tv); ok {
				b[k] = []string{s}
			}
		}
	}
	return b, nil
}

func scalar(v any) (string, bool) {
	switch tv := v.(type) {
	case string:
		return tv, true
	case json.Number:
		return tv.String(), true
	default:
		return "", false
	}
}

// First returns the first value for key.
func (b AnswerBundle) First(key string) (string, bool) {
	vs := b[key]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// All returns every value for key.
func (b AnswerBundle) All(key string) []string {
	return b[key]
}
