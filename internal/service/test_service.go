package service

import (
	"context"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/render"
	"github.com/stemsi/examforge/internal/repository"
)

// TestListing is a test summary with its description ready for display.
type TestListing struct {
	model.TestSummary
	Rendered render.Rendered `json:"rendered_description"`
}

// TestDetail is a full test with its description ready for display.
type TestDetail struct {
	*model.Test
	TotalMarks float64         `json:"total_marks"`
	Rendered   render.Rendered `json:"rendered_description"`
}

// TestService reads persisted tests.
type TestService struct {
	testRepo *repository.TestRepository
}

// NewTestService creates a new TestService.
func NewTestService(testRepo *repository.TestRepository) *TestService {
	return &TestService{testRepo: testRepo}
}

// List returns every test, newest first.
func (s *TestService) List(ctx context.Context) ([]TestListing, error) {
	tests, err := s.testRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TestListing, 0, len(tests))
	for i := range tests {
		out = append(out, TestListing{
			TestSummary: tests[i].Summary(),
			Rendered:    render.Description(tests[i].Description),
		})
	}
	return out, nil
}

// Get returns one test.
func (s *TestService) Get(ctx context.Context, id string) (*TestDetail, error) {
	t, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TestDetail{Test: t, TotalMarks: t.TotalMarks(), Rendered: render.Description(t.Description)}, nil
}
