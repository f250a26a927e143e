// Package viewer loads a test for reading and walks it one question at a time.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Load failures that map to a fixed message for the student.
var (
	ErrTestNotFound     = errors.New("test not found")
	ErrNoQuestions      = errors.New("test has no questions")
	ErrNoValidQuestions = errors.New("no valid questions in test")
)

// maxConcurrentLookups bounds the question fan-out of one load.
const maxConcurrentLookups = 16

// Message returns the text shown when loading fails.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrTestNotFound):
		return "Test not found."
	case errors.Is(err, ErrNoQuestions):
		return "This test has no questions."
	case errors.Is(err, ErrNoValidQuestions):
		return "No valid questions found in this test."
	default:
		return "Failed to load test. Please try again."
	}
}

// Source resolves tests and questions. Absent documents are reported with
// repository.ErrNotFound.
type Source interface {
	GetTest(ctx context.Context, id string) (*model.Test, error)
	GetQuestion(ctx context.Context, id string) (*model.Question, error)
}

// Option is a labelled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Item is one resolved question with the marking the test assigns it.
type Item struct {
	Question      model.Question `json:"question"`
	TypeLabel     string         `json:"type_label"`
	Options       []Option       `json:"options"`
	Marks         float64        `json:"marks"`
	NegativeMarks float64        `json:"negative_marks"`
	ShowNegative  bool           `json:"show_negative"`
	Order         int            `json:"order"`
	SectionID     string         `json:"section_id"`
	SubsectionID  string         `json:"subsection_id"`
}

// Paper is a loaded test: header plus the resolved questions in order.
type Paper struct {
	TestID          string          `json:"test_id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes float64         `json:"duration_minutes"`
	Sections        []model.Section `json:"sections"`
	Items           []Item          `json:"items"`
}

// Load fetches the test, sorts its questions by order, resolves them all
// concurrently and drops the ones that no longer exist. Any other lookup
// failure fails the whole load.
func Load(ctx context.Context, src Source, testID string) (*Paper, error) {
	test, err := src.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	if len(test.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	placed := make([]model.TestQuestion, len(test.Questions))
	copy(placed, test.Questions)
	sort.SliceStable(placed, func(i, j int) bool { return placed[i].Order < placed[j].Order })

	resolved := make([]*model.Question, len(placed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, tq := range placed {
		g.Go(func() error {
			q, err := src.GetQuestion(gctx, tq.QuestionID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("get question %s: %w", tq.QuestionID, err)
			}
			resolved[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paper := &Paper{
		TestID:          test.ID,
		Title:           test.Title,
		Description:     test.Description,
		DurationMinutes: test.DurationMinutes,
		Sections:        test.Sections,
	}
	for i, q := range resolved {
		if q == nil {
			continue
		}
		paper.Items = append(paper.Items, newItem(*q, placed[i]))
	}
	if len(paper.Items) == 0 {
		return nil, ErrNoValidQuestions
	}
	return paper, nil
}

func newItem(q model.Question, tq model.TestQuestion) Item {
	item := Item{
		Question:      q,
		TypeLabel:     q.Type.Label(),
		Options:       []Option{},
		Marks:         tq.Marks,
		NegativeMarks: tq.NegativeMarks,
		ShowNegative:  tq.NegativeMarks > 0,
		Order:         tq.Order,
		SectionID:     tq.SectionID,
		SubsectionID:  tq.SubsectionID,
	}
	if q.Type.HasOptions() {
		for i, text := range q.Options {
			item.Options = append(item.Options, Option{Label: optionLabel(i), Text: text})
		}
	}
	return item
}

// optionLabel returns A, B, ... Z, then AA, AB, ...
func optionLabel(i int) string {
	label := ""
	for i >= 0 {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
	}
	return label
}
