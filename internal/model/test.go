package model

import "time"

// Subsection is the second level of a test's outline.
type Subsection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Section is the top level of a test's outline.
type Section struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Order       int          `json:"order"`
	Subsections []Subsection `json:"subsections"`
}

// TestQuestion places a bank question inside a test with test-specific marking.
type TestQuestion struct {
	QuestionID    string  `json:"question_id"`
	Marks         float64 `json:"marks"`
	NegativeMarks float64 `json:"negative_marks"`
	Order         int     `json:"order"`
	SectionID     string  `json:"section_id"`
	SubsectionID  string  `json:"subsection_id"`
}

// TestInput is what the authoring editor produces on submit.
type TestInput struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationMinutes float64        `json:"duration_minutes"`
	Sections        []Section      `json:"sections"`
	Questions       []TestQuestion `json:"questions"`
}

// Test is a persisted, immutable test.
type Test struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationMinutes float64        `json:"duration_minutes"`
	Sections        []Section      `json:"sections"`
	Questions       []TestQuestion `json:"questions"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TotalMarks sums the marks of every placed question.
func (t *Test) TotalMarks() float64 {
	var total float64
	for _, q := range t.Questions {
		total += q.Marks
	}
	return total
}

// TestSummary is the list view of a test.
type TestSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes float64   `json:"duration_minutes"`
	SectionCount    int       `json:"section_count"`
	QuestionCount   int       `json:"question_count"`
	TotalMarks      float64   `json:"total_marks"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary builds the list view of the test.
func (t *Test) Summary() TestSummary {
	return TestSummary{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		DurationMinutes: t.DurationMinutes,
		SectionCount:    len(t.Sections),
		QuestionCount:   len(t.Questions),
		TotalMarks:      t.TotalMarks(),
		CreatedAt:       t.CreatedAt,
	}
}
