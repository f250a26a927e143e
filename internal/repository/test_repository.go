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

const testsCollection = "tests"

// TestRepository handles test documents.
type TestRepository struct {
	store docstore.Store
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(store docstore.Store) *TestRepository {
	return &TestRepository{store: store}
}

// Create persists a submitted test, stamping its author and timestamps.
func (r *TestRepository) Create(ctx context.Context, input model.TestInput, authorID string) (*model.Test, error) {
	now := time.Now().UTC()
	t := &model.Test{
		Title:           input.Title,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Sections:        input.Sections,
		Questions:       input.Questions,
		CreatedBy:       authorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := r.store.Create(ctx, testsCollection, t)
	if err != nil {
		return nil, fmt.Errorf("create test: %w", err)
	}
	t.ID = id
	return t, nil
}

// GetByID retrieves a test.
func (r *TestRepository) GetByID(ctx context.Context, id string) (*model.Test, error) {
	var t model.Test
	if err := r.store.Get(ctx, testsCollection, id, &t); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.ID = id
	return &t, nil
}

// List returns every test, newest first.
func (r *TestRepository) List(ctx context.Context) ([]model.Test, error) {
	snaps, err := r.store.List(ctx, testsCollection)
	if err != nil {
		return nil, err
	}

	tests := make([]model.Test, 0, len(snaps))
	for _, s := range snaps {
		var t model.Test
		if err := s.Decode(&t); err != nil {
			return nil, err
		}
		t.ID = s.ID
		tests = append(tests, t)
	}

	sort.SliceStable(tests, func(i, j int) bool {
		return tests[i].CreatedAt.After(tests[j].CreatedAt)
	})
	return tests, nil
}
