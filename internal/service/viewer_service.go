package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/render"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/viewer"
)

// ErrTestNotOpened is returned when navigating a test the student has not
// opened, or whose cursor expired.
var ErrTestNotOpened = errors.New("test not opened")

// OpenedTest is the first screen of the test viewer.
type OpenedTest struct {
	viewer.State
	Description render.Rendered `json:"description"`
	Sections    []model.Section `json:"sections"`
}

// ViewerService serves the student test viewer. Loaded papers are cached
// per test; each student's cursor is kept per test.
type ViewerService struct {
	testRepo     *repository.TestRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	paperTTL     time.Duration
	cursorTTL    time.Duration
	log          zerolog.Logger
}

// NewViewerService creates a new ViewerService.
func NewViewerService(testRepo *repository.TestRepository, questionRepo *repository.QuestionRepository, rdb *redis.Client, paperTTL, cursorTTL time.Duration, log zerolog.Logger) *ViewerService {
	return &ViewerService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		paperTTL:     paperTTL,
		cursorTTL:    cursorTTL,
		log:          log.With().Str("component", "viewer").Logger(),
	}
}

// GetTest implements viewer.Source.
func (s *ViewerService) GetTest(ctx context.Context, id string) (*model.Test, error) {
	return s.testRepo.GetByID(ctx, id)
}

// GetQuestion implements viewer.Source.
func (s *ViewerService) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Open loads the test and puts the student on its first question.
func (s *ViewerService) Open(ctx context.Context, uid, testID string) (*OpenedTest, error) {
	p, err := s.paper(ctx, testID)
	if err != nil {
		return nil, err
	}

	v := viewer.New(p)
	if err := s.saveCursor(ctx, uid, testID, v.Index()); err != nil {
		return nil, err
	}
	return &OpenedTest{
		State:       v.State(false),
		Description: render.Description(p.Description),
		Sections:    p.Sections,
	}, nil
}

// Current returns the question under the student's cursor.
func (s *ViewerService) Current(ctx context.Context, uid, testID string) (*viewer.State, error) {
	v, err := s.restore(ctx, uid, testID)
	if err != nil {
		return nil, err
	}
	st := v.State(false)
	return &st, nil
}

// Next moves to the following question; a no-op on the last one.
func (s *ViewerService) Next(ctx context.Context, uid, testID string) (*viewer.State, error) {
	return s.move(ctx, uid, testID, (*viewer.Viewer).Next)
}

// Previous moves to the preceding question; a no-op on the first one.
func (s *ViewerService) Previous(ctx context.Context, uid, testID string) (*viewer.State, error) {
	return s.move(ctx, uid, testID, (*viewer.Viewer).Previous)
}

// GoTo jumps to index, clamped to the paper.
func (s *ViewerService) GoTo(ctx context.Context, uid, testID string, index int) (*viewer.State, error) {
	return s.move(ctx, uid, testID, func(v *viewer.Viewer) bool { return v.GoTo(index) })
}

func (s *ViewerService) move(ctx context.Context, uid, testID string, step func(*viewer.Viewer) bool) (*viewer.State, error) {
	v, err := s.restore(ctx, uid, testID)
	if err != nil {
		return nil, err
	}
	moved := step(v)
	if moved {
		if err := s.saveCursor(ctx, uid, testID, v.Index()); err != nil {
			return nil, err
		}
	}
	st := v.State(moved)
	return &st, nil
}

func (s *ViewerService) restore(ctx context.Context, uid, testID string) (*viewer.Viewer, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ViewerCursorKey(uid, testID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTestNotOpened
		}
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return nil, ErrTestNotOpened
	}

	p, err := s.paper(ctx, testID)
	if err != nil {
		return nil, err
	}
	return viewer.Restore(p, index), nil
}

func (s *ViewerService) saveCursor(ctx context.Context, uid, testID string, index int) error {
	if err := s.rdb.Set(ctx, config.CacheKey.ViewerCursorKey(uid, testID), strconv.Itoa(index), s.cursorTTL).Err(); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// paper returns the cached paper or loads it. Cache failures only cost a reload.
func (s *ViewerService) paper(ctx context.Context, testID string) (*viewer.Paper, error) {
	key := config.CacheKey.TestPaperKey(testID)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var p viewer.Paper
		if err := json.Unmarshal([]byte(raw), &p); err == nil && len(p.Items) > 0 {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("test_id", testID).Msg("Paper cache read failed")
	}

	p, err := viewer.Load(ctx, s, testID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.rdb.Set(ctx, key, string(data), s.paperTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("test_id", testID).Msg("Paper cache write failed")
		}
	}
	return p, nil
}
