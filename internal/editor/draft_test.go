package editor

import (
	"encoding/json"
	"testing"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id, customID string, marks, penalty float64) model.Question {
	return model.Question{ID: id, CustomID: customID, Type: model.QuestionTypeSingle, Marks: marks, Penalty: penalty}
}

func assertMessage(t *testing.T, err error, want string) {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, want, ve.Message)
}

// outline builds a draft with one section holding one active subsection.
func outline(t *testing.T) (*Draft, *Section, *Subsection) {
	t.Helper()
	d := New("author-1")
	sec, err := d.AddSection("Physics")
	require.NoError(t, err)
	sub, err := d.AddSubsection(sec.ID, "Section A")
	require.NoError(t, err)
	require.NoError(t, d.SetActive(sec.ID, sub.ID))
	return d, sec, sub
}

func TestNew_Defaults(t *testing.T) {
	d := New("author-1")
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, DefaultDuration, d.Duration)
	assert.Nil(t, d.Active)
	assert.Empty(t, d.Sections)
}

func TestAddSection(t *testing.T) {
	d := New("author-1")

	_, err := d.AddSection("   ")
	assertMessage(t, err, MsgSectionNameRequired)
	assert.Empty(t, d.Sections)

	first, err := d.AddSection("  Physics ")
	require.NoError(t, err)
	second, err := d.AddSection("Chemistry")
	require.NoError(t, err)

	assert.Equal(t, "Physics", first.Name)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, d.Expanded[first.ID])
}

func TestAddSubsection(t *testing.T) {
	d := New("author-1")
	sec, err := d.AddSection("Physics")
	require.NoError(t, err)
	d.Expanded[sec.ID] = false

	_, err = d.AddSubsection(sec.ID, "")
	assertMessage(t, err, MsgSubsectionNameRequired)

	_, err = d.AddSubsection("nope", "Section A")
	assert.ErrorIs(t, err, ErrSectionNotFound)

	a, err := d.AddSubsection(sec.ID, "Section A")
	require.NoError(t, err)
	b, err := d.AddSubsection(sec.ID, "Section B")
	require.NoError(t, err)

	assert.Equal(t, 0, a.Order)
	assert.Equal(t, 1, b.Order)
	assert.Equal(t, sec.ID, b.SectionID)
	assert.True(t, d.Expanded[sec.ID])
}

func TestDeleteSection_CascadesAfterConfirmation(t *testing.T) {
	d, sec, sub := outline(t)
	_, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
	require.NoError(t, err)

	err = d.DeleteSection(sec.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, d.Sections, 1)
	assert.Len(t, d.Assignments, 1)

	require.NoError(t, d.DeleteSection(sec.ID, true))
	assert.Empty(t, d.Sections)
	assert.NotContains(t, d.Subsections, sub.ID)
	assert.Empty(t, d.Assignments)
	assert.Nil(t, d.Active)

	assert.ErrorIs(t, d.DeleteSection(sec.ID, true), ErrSectionNotFound)
}

func TestDeleteSubsection_CascadesAfterConfirmation(t *testing.T) {
	d, sec, sub := outline(t)
	other, err := d.AddSubsection(sec.ID, "Section B")
	require.NoError(t, err)

	_, err = d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
	require.NoError(t, err)
	require.NoError(t, d.SetActive(sec.ID, other.ID))
	_, err = d.ToggleQuestion(question("q2", "PHY-2", 4, 1))
	require.NoError(t, err)
	require.NoError(t, d.SetActive(sec.ID, sub.ID))

	assert.ErrorIs(t, d.DeleteSubsection(sec.ID, sub.ID, false), ErrConfirmationRequired)
	require.NoError(t, d.DeleteSubsection(sec.ID, sub.ID, true))

	assert.NotContains(t, d.Assignments, "q1")
	assert.Contains(t, d.Assignments, "q2")
	assert.Nil(t, d.Active)
	assert.ErrorIs(t, d.DeleteSubsection("other-section", other.ID, true), ErrSubsectionNotFound)
}

func TestSetActive_RejectsForeignSubsection(t *testing.T) {
	d, _, sub := outline(t)
	other, err := d.AddSection("Chemistry")
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetActive(other.ID, sub.ID), ErrSubsectionNotFound)
}

func TestToggleExpanded(t *testing.T) {
	d, sec, _ := outline(t)

	open, err := d.ToggleExpanded(sec.ID)
	require.NoError(t, err)
	assert.False(t, open)

	open, err = d.ToggleExpanded(sec.ID)
	require.NoError(t, err)
	assert.True(t, open)

	_, err = d.ToggleExpanded("missing")
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestToggleQuestion(t *testing.T) {
	t.Run("Requires a target", func(t *testing.T) {
		d := New("author-1")
		_, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
		assertMessage(t, err, MsgSelectTarget)
		assert.Empty(t, d.Assignments)
	})

	t.Run("Assign then unassign", func(t *testing.T) {
		d, sec, sub := outline(t)

		assigned, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
		require.NoError(t, err)
		assert.True(t, assigned)
		assert.Equal(t, &Assignment{
			QuestionID: "q1", Marks: "4", NegativeMarks: "1",
			SectionID: sec.ID, SubsectionID: sub.ID, Seq: d.Assignments["q1"].Seq,
		}, d.Assignments["q1"])

		assigned, err = d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
		require.NoError(t, err)
		assert.False(t, assigned)
		assert.Empty(t, d.Assignments)
	})

	t.Run("Move resets marks and keeps position", func(t *testing.T) {
		d, sec, sub := outline(t)
		other, err := d.AddSubsection(sec.ID, "Section B")
		require.NoError(t, err)

		_, err = d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
		require.NoError(t, err)
		_, err = d.ToggleQuestion(question("q2", "PHY-2", 3, 0))
		require.NoError(t, err)
		_, err = d.EditMarks("q1", FieldMarks, "10")
		require.NoError(t, err)
		seq := d.Assignments["q1"].Seq

		require.NoError(t, d.SetActive(sec.ID, other.ID))
		assigned, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
		require.NoError(t, err)
		assert.True(t, assigned)

		moved := d.Assignments["q1"]
		assert.Equal(t, other.ID, moved.SubsectionID)
		assert.Equal(t, "4", moved.Marks)
		assert.Equal(t, seq, moved.Seq)
		assert.Equal(t, sub.ID, d.Assignments["q2"].SubsectionID)
	})
}

func TestEditMarks(t *testing.T) {
	d, _, _ := outline(t)
	_, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
	require.NoError(t, err)

	changed, err := d.EditMarks("q1", FieldNegativeMarks, "0.5")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "0.5", d.Assignments["q1"].NegativeMarks)

	changed, err = d.EditMarks("ghost", FieldMarks, "5")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NotContains(t, d.Assignments, "ghost")

	_, err = d.EditMarks("q1", Field("bonus"), "5")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFilter(t *testing.T) {
	bank := []model.Question{
		question("q1", "PHY-001", 4, 1),
		question("q2", "chem-002", 4, 1),
		question("q3", "PHY-010", 4, 1),
	}
	d := New("author-1")

	d.SetSearch("   ")
	assert.Len(t, d.Filter(bank), 3)

	d.SetSearch(" phy ")
	got := d.Filter(bank)
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
	assert.Equal(t, "q3", got[1].ID)

	d.SetSearch("CHEM")
	items := d.Bank(bank)
	require.Len(t, items, 1)
	assert.False(t, items[0].Assigned)
}

func TestDraft_SurvivesJSON(t *testing.T) {
	d, _, _ := outline(t)
	d.SetDetails("Mock 1", "", "60")
	_, err := d.ToggleQuestion(question("q1", "PHY-1", 4, 1))
	require.NoError(t, err)

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var restored Draft
	require.NoError(t, json.Unmarshal(raw, &restored))
	restored.Normalize()

	want, err := d.Submit("author-1")
	require.NoError(t, err)
	got, err := restored.Submit("author-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
