package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/editor"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stretchr/testify/require"
)

type memorySessions struct {
	mu   sync.Mutex
	live map[string]bool
}

func (m *memorySessions) Save(_ context.Context, uid, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live == nil {
		m.live = make(map[string]bool)
	}
	m.live[uid+"/"+jti] = true
	return nil
}

func (m *memorySessions) Exists(_ context.Context, uid, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[uid+"/"+jti], nil
}

func (m *memorySessions) Delete(_ context.Context, uid, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, uid+"/"+jti)
	return nil
}

func (m *memorySessions) Active(_ context.Context, uid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, live := range m.live {
		if live && strings.HasPrefix(key, uid+"/") {
			return true, nil
		}
	}
	return false, nil
}

type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string][]byte
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string][]byte)}
}

func (m *memoryDrafts) Save(_ context.Context, d *editor.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.AuthorID+"/"+d.ID] = data
	return nil
}

func (m *memoryDrafts) Load(_ context.Context, authorID, draftID string) (*editor.Draft, error) {
	m.mu.Lock()
	data, ok := m.drafts[authorID+"/"+draftID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	return decodeDraft(string(data))
}

func (m *memoryDrafts) List(_ context.Context, authorID string) ([]*editor.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.drafts))
	for k := range m.drafts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []*editor.Draft
	for _, k := range keys {
		d, err := decodeDraft(string(m.drafts[k]))
		if err != nil {
			return nil, err
		}
		if d.AuthorID == authorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryDrafts) Delete(_ context.Context, authorID, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, authorID+"/"+draftID)
	return nil
}

// failingCreates refuses every document creation.
type failingCreates struct {
	*docstore.Memory
}

func (f failingCreates) Create(context.Context, string, any) (string, error) {
	return "", errors.New("PERMISSION_DENIED: missing or insufficient permissions")
}

func seedQuestion(t *testing.T, repo *repository.QuestionRepository, customID string, marks, penalty float64) *model.Question {
	t.Helper()
	q := &model.Question{
		CustomID: customID,
		Subject:  "Physics",
		Type:     model.QuestionTypeSingle,
		Marks:    marks,
		Penalty:  penalty,
		Text:     "<p>" + customID + "</p>",
		Options:  []string{"a", "b"},
	}
	require.NoError(t, repo.Create(context.Background(), q))
	return q
}

var nopLog = zerolog.Nop()
