package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/model"
)

const questionsCollection = "questions"

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	store docstore.Store
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(store docstore.Store) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// Create inserts a question and sets its generated ID and timestamps.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now

	id, err := r.store.Create(ctx, questionsCollection, q)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	q.ID = id
	return nil
}

// GetByID retrieves a question.
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	if err := r.store.Get(ctx, questionsCollection, id, &q); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q.ID = id
	return &q, nil
}

// List returns the whole bank, newest first.
func (r *QuestionRepository) List(ctx context.Context) ([]model.Question, error) {
	snaps, err := r.store.List(ctx, questionsCollection)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(snaps))
	for _, s := range snaps {
		var q model.Question
		if err := s.Decode(&q); err != nil {
			return nil, err
		}
		q.ID = s.ID
		questions = append(questions, q)
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].CreatedAt.After(questions[j].CreatedAt)
	})
	return questions, nil
}
