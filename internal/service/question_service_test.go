package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stemsi/examforge/internal/docstore"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() model.CreateQuestionRequest {
	return model.CreateQuestionRequest{
		CustomID:   " PHY-001 ",
		Subject:    "Physics",
		Type:       "mcq_single",
		Difficulty: "easy",
		Marks:      4,
		Penalty:    1,
		Text:       `<p>Speed of light?</p><script>alert(1)</script>`,
		Options:    []string{"3e8 m/s", "<b>3e6</b> m/s"},
	}
}

func TestNewQuestion(t *testing.T) {
	q, err := NewQuestion(validRequest())
	require.NoError(t, err)
	assert.Equal(t, "PHY-001", q.CustomID)
	assert.Equal(t, "<p>Speed of light?</p>", q.Text)
	assert.Equal(t, []string{"3e8 m/s", "<b>3e6</b> m/s"}, q.Options)

	tests := []struct {
		name   string
		mutate func(*model.CreateQuestionRequest)
		want   error
	}{
		{"Choice with one option", func(r *model.CreateQuestionRequest) { r.Options = []string{"only"} }, ErrOptionsRequired},
		{"Choice with blank options", func(r *model.CreateQuestionRequest) { r.Options = []string{" ", "<script></script>"} }, ErrOptionsRequired},
		{"Numerical with options", func(r *model.CreateQuestionRequest) { r.Type = "numerical" }, ErrOptionsNotAllowed},
		{"Markup-only text", func(r *model.CreateQuestionRequest) { r.Text = "<script>x</script>" }, ErrEmptyQuestionText},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := NewQuestion(req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	req := validRequest()
	req.Type = "numerical"
	req.Options = nil
	q, err = NewQuestion(req)
	require.NoError(t, err)
	assert.Empty(t, q.Options)
}

func TestQuestionService_ListPagesAndSearches(t *testing.T) {
	ctx := context.Background()
	svc := NewQuestionService(repository.NewQuestionRepository(docstore.NewMemory()))

	for i := 0; i < 5; i++ {
		req := validRequest()
		req.CustomID = fmt.Sprintf("PHY-%03d", i)
		_, err := svc.Create(ctx, "admin-1", req)
		require.NoError(t, err)
	}
	chem := validRequest()
	chem.CustomID = "CHE-001"
	chem.Subject = "Chemistry"
	created, err := svc.Create(ctx, "admin-1", chem)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", created.CreatedBy)

	page, pagination, err := svc.List(ctx, 2, 4, "")
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 6, pagination.TotalItems)
	assert.Equal(t, 2, pagination.TotalPages)

	found, pagination, err := svc.List(ctx, 1, 10, "chem")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "CHE-001", found[0].CustomID)
	assert.Equal(t, 1, pagination.TotalItems)

	empty, _, err := svc.List(ctx, 9, 10, "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", got.Subject)
}
