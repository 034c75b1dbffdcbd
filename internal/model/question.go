package model

// QuestionType is the closed set of question variants an exam may contain.
type QuestionType string

const (
	QuestionTypeSingleChoice       QuestionType = "single_choice"
	QuestionTypeMultipleChoice     QuestionType = "multiple_choice"
	QuestionTypeMatching           QuestionType = "matching"
	QuestionTypeFillBlank          QuestionType = "fill_blank"
	QuestionTypeTrueFalseNotGiven  QuestionType = "true_false_ng"
	QuestionTypeSentenceCompletion QuestionType = "sentence_completion"
)

// AllQuestionTypes lists every variant in display order.
var AllQuestionTypes = []QuestionType{
	QuestionTypeSingleChoice,
	QuestionTypeMultipleChoice,
	QuestionTypeMatching,
	QuestionTypeFillBlank,
	QuestionTypeTrueFalseNotGiven,
	QuestionTypeSentenceCompletion,
}

// Valid reports whether t is one of the known variants.
func (t QuestionType) Valid() bool {
	for _, known := range AllQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human-readable name shown on dashboards.
func (t QuestionType) Label() string {
	switch t {
	case QuestionTypeSingleChoice:
		return "Single Choice"
	case QuestionTypeMultipleChoice:
		return "Multiple Choice"
	case QuestionTypeMatching:
		return "Matching"
	case QuestionTypeFillBlank:
		return "Fill in the Blank"
	case QuestionTypeTrueFalseNotGiven:
		return "True/False/Not Given"
	case QuestionTypeSentenceCompletion:
		return "Sentence Completion"
	default:
		return string(t)
	}
}

// UsesChoices reports whether correctness is decided by Choice.IsCorrect.
func (t QuestionType) UsesChoices() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalseNotGiven
}

// UsesAnswerText reports whether correctness is decided by CorrectAnswerText.
func (t QuestionType) UsesAnswerText() bool {
	return t == QuestionTypeFillBlank || t == QuestionTypeSentenceCompletion
}

// Question is a single item of an exam. Only the fields relevant to its
// type are populated.
type Question struct {
	ID                int64          `json:"id"`
	ExamID            int64          `json:"exam_id"`
	Type              QuestionType   `json:"question_type"`
	Text              string         `json:"question_text"`
	Order             int            `json:"order"`
	CorrectAnswerText string         `json:"correct_answer_text,omitempty"`
	MatchingPairs     []MatchingPair `json:"matching_pairs,omitempty"`
	Choices           []Choice       `json:"choices,omitempty"`
}

// Choice is one selectable option of a choice-based question.
type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

// MatchingPair is one left/right pair of a matching question. Right is the
// accepted answer for the pair's index.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// CreateQuestionRequest is a question nested in CreateExamRequest.
type CreateQuestionRequest struct {
	Type              QuestionType          `json:"question_type" binding:"required,question_type"`
	Text              string                `json:"question_text" binding:"required,min=1,max=4000"`
	Order             int                   `json:"order" binding:"min=0"`
	CorrectAnswerText string                `json:"correct_answer_text" binding:"max=2000"`
	MatchingPairs     []MatchingPair        `json:"matching_pairs" binding:"omitempty,dive"`
	Choices           []CreateChoiceRequest `json:"choices" binding:"omitempty,dive"`
}

// CreateChoiceRequest is a choice nested in CreateQuestionRequest.
type CreateChoiceRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=1000"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order" binding:"min=0"`
}

// QuestionForStudent is a question without any answer key, sent to students.
type QuestionForStudent struct {
	ID   int64        `json:"id"`
	Type QuestionType `json:"question_type"`
	Text string       `json:"question_text"`
	// Choices is set for choice-based questions.
	Choices []ChoiceForStudent `json:"choices,omitempty"`
	// MatchLeft holds the left side of each pair, in pair order. The
	// submitted field for index i is question_<id>_match_<i>.
	MatchLeft []string `json:"match_left,omitempty"`
	// MatchOptions holds the right-hand values, sorted.
	MatchOptions []string `json:"match_options,omitempty"`
}

// ChoiceForStudent is a choice without the correctness flag.
type ChoiceForStudent struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}
