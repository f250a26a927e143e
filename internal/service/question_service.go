package service

import (
	"context"
	"errors"
	"strings"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/render"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/response"
)

// Question invariants checked on create.
var (
	ErrOptionsRequired   = errors.New("choice questions need at least two options")
	ErrOptionsNotAllowed = errors.New("numerical questions cannot have options")
	ErrEmptyQuestionText = errors.New("question text is empty after sanitizing")
)

const minOptions = 2

// QuestionService handles question bank business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// List returns one page of the bank, newest first. search matches the custom
// ID, subject or chapter case-insensitively.
func (s *QuestionService) List(ctx context.Context, page, perPage int, search string) ([]model.Question, *response.Pagination, error) {
	all, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	if q := strings.ToLower(strings.TrimSpace(search)); q != "" {
		filtered := all[:0:0]
		for _, item := range all {
			if matchesQuestion(item, q) {
				filtered = append(filtered, item)
			}
		}
		all = filtered
	}

	pagination := paginate(len(all), page, perPage)
	start := (pagination.Page - 1) * pagination.PerPage
	end := min(start+pagination.PerPage, len(all))
	if start >= len(all) {
		return []model.Question{}, pagination, nil
	}
	return all[start:end], pagination, nil
}

// All returns the whole bank, newest first.
func (s *QuestionService) All(ctx context.Context) ([]model.Question, error) {
	return s.questionRepo.List(ctx)
}

// Get retrieves one question.
func (s *QuestionService) Get(ctx context.Context, id string) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create validates and stores a question. Text and options are sanitized
// rich text.
func (s *QuestionService) Create(ctx context.Context, authorID string, req model.CreateQuestionRequest) (*model.Question, error) {
	q, err := NewQuestion(req)
	if err != nil {
		return nil, err
	}
	q.CreatedBy = authorID
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// NewQuestion builds a question from a request and checks the option rules.
func NewQuestion(req model.CreateQuestionRequest) (*model.Question, error) {
	qt := model.QuestionType(req.Type)

	options := make([]string, 0, len(req.Options))
	for _, o := range req.Options {
		if clean := strings.TrimSpace(render.RichText(o)); clean != "" {
			options = append(options, clean)
		}
	}
	switch {
	case qt.HasOptions() && len(options) < minOptions:
		return nil, ErrOptionsRequired
	case !qt.HasOptions() && len(req.Options) > 0:
		return nil, ErrOptionsNotAllowed
	}

	text := strings.TrimSpace(render.RichText(req.Text))
	if text == "" {
		return nil, ErrEmptyQuestionText
	}

	q := &model.Question{
		CustomID:   strings.TrimSpace(req.CustomID),
		Subject:    strings.TrimSpace(req.Subject),
		Chapter:    strings.TrimSpace(req.Chapter),
		Topic:      strings.TrimSpace(req.Topic),
		Subtopic:   strings.TrimSpace(req.Subtopic),
		Type:       qt,
		Difficulty: model.Difficulty(req.Difficulty),
		Marks:      req.Marks,
		Penalty:    req.Penalty,
		Text:       text,
		ImageURL:   strings.TrimSpace(req.ImageURL),
	}
	if qt.HasOptions() {
		q.Options = options
	}
	return q, nil
}

func matchesQuestion(q model.Question, needle string) bool {
	for _, field := range []string{q.CustomID, q.Subject, q.Chapter} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func paginate(total, page, perPage int) *response.Pagination {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}
