package model

import "time"

// QuestionType enumerates the supported answer formats.
type QuestionType string

const (
	QuestionTypeSingle    QuestionType = "mcq_single"
	QuestionTypeMultiple  QuestionType = "mcq_multiple"
	QuestionTypeNumerical QuestionType = "numerical"
)

// Label is the human-readable name shown next to a question.
func (t QuestionType) Label() string {
	switch t {
	case QuestionTypeSingle:
		return "Single Choice"
	case QuestionTypeMultiple:
		return "Multiple Choice"
	case QuestionTypeNumerical:
		return "Numerical"
	default:
		return string(t)
	}
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionTypeSingle || t == QuestionTypeMultiple
}

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is an item in the question bank. Numerical questions never carry options.
type Question struct {
	ID         string       `json:"id"`
	CustomID   string       `json:"custom_id"`
	Subject    string       `json:"subject"`
	Chapter    string       `json:"chapter"`
	Topic      string       `json:"topic"`
	Subtopic   string       `json:"subtopic"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
	Marks      float64      `json:"marks"`
	Penalty    float64      `json:"penalty"`
	Text       string       `json:"text"`
	ImageURL   string       `json:"image_url,omitempty"`
	Options    []string     `json:"options,omitempty"`
	CreatedBy  string       `json:"created_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// CreateQuestionRequest is the payload for adding a question to the bank.
// The yaml tags let cmd/seed-questions read the same shape from files.
type CreateQuestionRequest struct {
	CustomID   string   `json:"custom_id" yaml:"custom_id" binding:"required,max=64"`
	Subject    string   `json:"subject" yaml:"subject" binding:"required,max=100"`
	Chapter    string   `json:"chapter" yaml:"chapter" binding:"max=100"`
	Topic      string   `json:"topic" yaml:"topic" binding:"max=100"`
	Subtopic   string   `json:"subtopic" yaml:"subtopic" binding:"max=100"`
	Type       string   `json:"type" yaml:"type" binding:"required,oneof=mcq_single mcq_multiple numerical"`
	Difficulty string   `json:"difficulty" yaml:"difficulty" binding:"required,oneof=easy medium hard"`
	Marks      float64  `json:"marks" yaml:"marks" binding:"required,gt=0"`
	Penalty    float64  `json:"penalty" yaml:"penalty" binding:"gte=0"`
	Text       string   `json:"text" yaml:"text" binding:"required"`
	ImageURL   string   `json:"image_url" yaml:"image_url" binding:"omitempty,max=2048"`
	Options    []string `json:"options" yaml:"options" binding:"omitempty,dive,required"`
}
