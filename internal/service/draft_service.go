package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/editor"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
)

// PersistError reports that a valid draft could not be stored as a test.
// The draft is kept so the author can retry.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string { return e.Err.Error() }
func (e *PersistError) Unwrap() error { return e.Err }

// ToggleResult tells whether the toggled question ended up assigned.
type ToggleResult struct {
	Assigned bool        `json:"assigned"`
	Draft    editor.View `json:"draft"`
}

// DraftService drives the authoring editor. Every mutation loads the
// author's draft, applies one editor operation and parks it again; the last
// write wins.
type DraftService struct {
	drafts       DraftStore
	questionRepo *repository.QuestionRepository
	testRepo     *repository.TestRepository
	log          zerolog.Logger
}

// NewDraftService creates a new DraftService.
func NewDraftService(drafts DraftStore, questionRepo *repository.QuestionRepository, testRepo *repository.TestRepository, log zerolog.Logger) *DraftService {
	return &DraftService{
		drafts:       drafts,
		questionRepo: questionRepo,
		testRepo:     testRepo,
		log:          log.With().Str("component", "drafts").Logger(),
	}
}

// Create starts an empty draft.
func (s *DraftService) Create(ctx context.Context, authorID string) (*editor.View, error) {
	d := editor.New(authorID)
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	v := d.View()
	return &v, nil
}

// List returns the author's drafts.
func (s *DraftService) List(ctx context.Context, authorID string) ([]editor.View, error) {
	drafts, err := s.drafts.List(ctx, authorID)
	if err != nil {
		return nil, err
	}
	views := make([]editor.View, 0, len(drafts))
	for _, d := range drafts {
		views = append(views, d.View())
	}
	return views, nil
}

// Get returns one draft.
func (s *DraftService) Get(ctx context.Context, authorID, draftID string) (*editor.View, error) {
	d, err := s.drafts.Load(ctx, authorID, draftID)
	if err != nil {
		return nil, err
	}
	v := d.View()
	return &v, nil
}

// Delete discards a draft.
func (s *DraftService) Delete(ctx context.Context, authorID, draftID string) error {
	if _, err := s.drafts.Load(ctx, authorID, draftID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, authorID, draftID)
}

func (s *DraftService) UpdateDetails(ctx context.Context, authorID, draftID string, req model.UpdateDraftDetailsRequest) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		d.SetDetails(req.Title, req.Description, req.DurationMinutes)
		return nil
	})
}

func (s *DraftService) AddSection(ctx context.Context, authorID, draftID, name string) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		_, err := d.AddSection(name)
		return err
	})
}

func (s *DraftService) DeleteSection(ctx context.Context, authorID, draftID, sectionID string, confirmed bool) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		return d.DeleteSection(sectionID, confirmed)
	})
}

func (s *DraftService) ToggleExpanded(ctx context.Context, authorID, draftID, sectionID string) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		_, err := d.ToggleExpanded(sectionID)
		return err
	})
}

func (s *DraftService) AddSubsection(ctx context.Context, authorID, draftID, sectionID, name string) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		_, err := d.AddSubsection(sectionID, name)
		return err
	})
}

func (s *DraftService) DeleteSubsection(ctx context.Context, authorID, draftID, sectionID, subsectionID string, confirmed bool) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		return d.DeleteSubsection(sectionID, subsectionID, confirmed)
	})
}

func (s *DraftService) SetActive(ctx context.Context, authorID, draftID string, req model.SetActiveTargetRequest) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		return d.SetActive(req.SectionID, req.SubsectionID)
	})
}

func (s *DraftService) SetSearch(ctx context.Context, authorID, draftID, query string) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		d.SetSearch(query)
		return nil
	})
}

// Questions lists the bank filtered by the draft's search text, each row
// marked with its current assignment.
func (s *DraftService) Questions(ctx context.Context, authorID, draftID string) ([]editor.BankItem, error) {
	d, err := s.drafts.Load(ctx, authorID, draftID)
	if err != nil {
		return nil, err
	}
	bank, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return d.Bank(bank), nil
}

// ToggleQuestion assigns, moves or unassigns a bank question relative to the
// active target.
func (s *DraftService) ToggleQuestion(ctx context.Context, authorID, draftID, questionID string) (*ToggleResult, error) {
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	var assigned bool
	v, err := s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		var err error
		assigned, err = d.ToggleQuestion(*q)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Assigned: assigned, Draft: *v}, nil
}

// EditMarks changes a marking field of an assigned question. Unassigned
// questions are left alone.
func (s *DraftService) EditMarks(ctx context.Context, authorID, draftID, questionID string, req model.EditMarksRequest) (*editor.View, error) {
	return s.update(ctx, authorID, draftID, func(d *editor.Draft) error {
		_, err := d.EditMarks(questionID, editor.Field(req.Field), req.Value)
		return err
	})
}

// Submit validates the draft, stores it as a test and discards the draft.
// Validation failures are *editor.ValidationError; a storage failure is a
// *PersistError and leaves the draft in place.
func (s *DraftService) Submit(ctx context.Context, authorID, draftID string) (*model.Test, error) {
	d, err := s.drafts.Load(ctx, authorID, draftID)
	if err != nil {
		return nil, err
	}

	input, err := d.Submit(authorID)
	if err != nil {
		return nil, err
	}

	test, err := s.testRepo.Create(ctx, input, authorID)
	if err != nil {
		s.log.Error().Err(err).Str("draft_id", draftID).Msg("Failed to store submitted test")
		return nil, &PersistError{Err: err}
	}

	if err := s.drafts.Delete(ctx, authorID, draftID); err != nil {
		s.log.Warn().Err(err).Str("draft_id", draftID).Msg("Failed to discard submitted draft")
	}
	s.log.Info().Str("test_id", test.ID).Int("questions", len(test.Questions)).Msg("Test created")
	return test, nil
}

func (s *DraftService) update(ctx context.Context, authorID, draftID string, fn func(*editor.Draft) error) (*editor.View, error) {
	d, err := s.drafts.Load(ctx, authorID, draftID)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	v := d.View()
	return &v, nil
}
