package editor

import (
	"time"

	"github.com/stemsi/examforge/internal/model"
)

// View is the draft as the authoring screen renders it.
type View struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DurationMinutes string        `json:"duration_minutes"`
	Sections        []SectionView `json:"sections"`
	Active          *Target       `json:"active,omitempty"`
	Search          string        `json:"search"`
	AssignedCount   int           `json:"assigned_count"`
	TotalMarks      float64       `json:"total_marks"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SectionView is one outline section with its subsections in order.
type SectionView struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Order       int              `json:"order"`
	Expanded    bool             `json:"expanded"`
	Subsections []SubsectionView `json:"subsections"`
}

// SubsectionView lists the questions assigned to a subsection.
type SubsectionView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Order     int          `json:"order"`
	Active    bool         `json:"active"`
	Questions []Assignment `json:"questions"`
}

// BankItem is a question bank row annotated with its assignment.
type BankItem struct {
	Question   model.Question `json:"question"`
	Assigned   bool           `json:"assigned"`
	Assignment *Assignment    `json:"assignment,omitempty"`
}

// View builds the outline in display order. Total marks only counts values
// that currently parse.
func (d *Draft) View() View {
	v := View{
		ID:              d.ID,
		Title:           d.Title,
		Description:     d.Description,
		DurationMinutes: d.Duration,
		Sections:        make([]SectionView, 0, len(d.Sections)),
		Active:          d.Active,
		Search:          d.Search,
		AssignedCount:   len(d.Assignments),
		UpdatedAt:       d.UpdatedAt,
	}

	for _, s := range d.sortedSections() {
		sv := SectionView{
			ID:          s.ID,
			Name:        s.Name,
			Order:       s.Order,
			Expanded:    d.Expanded[s.ID],
			Subsections: []SubsectionView{},
		}
		for _, sub := range d.subsectionsOf(s.ID) {
			subView := SubsectionView{
				ID:        sub.ID,
				Name:      sub.Name,
				Order:     sub.Order,
				Active:    d.Active != nil && d.Active.SubsectionID == sub.ID,
				Questions: []Assignment{},
			}
			for _, a := range d.assignmentsIn(sub.ID) {
				subView.Questions = append(subView.Questions, *a)
				if marks, ok := parseNumber(a.Marks); ok {
					v.TotalMarks += marks
				}
			}
			sv.Subsections = append(sv.Subsections, subView)
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

// Bank filters the question bank by the search text and marks assignments.
func (d *Draft) Bank(bank []model.Question) []BankItem {
	filtered := d.Filter(bank)
	items := make([]BankItem, 0, len(filtered))
	for _, q := range filtered {
		item := BankItem{Question: q}
		if a, ok := d.Assignments[q.ID]; ok {
			cp := *a
			item.Assigned = true
			item.Assignment = &cp
		}
		items = append(items, item)
	}
	return items
}
