// Package editor holds the test-authoring state: a section/subsection outline,
// question assignments with per-test marking, and the submit step that
// validates the draft and flattens it into a model.TestInput.
//
// Sections and subsections live in flat tables keyed by ID. Subsections point
// at their parent and assignments point at both, so deletes cascade by scan.
package editor

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stemsi/examforge/internal/model"
)

// DefaultDuration pre-fills a new draft's duration field.
const DefaultDuration = "60"

// Section is a top-level outline node.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Seq   int64  `json:"seq"`
}

// Subsection belongs to exactly one section.
type Subsection struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
	Seq       int64  `json:"seq"`
}

// Assignment places a question in a subsection. Marks stay raw text until submit.
type Assignment struct {
	QuestionID    string `json:"question_id"`
	Marks         string `json:"marks"`
	NegativeMarks string `json:"negative_marks"`
	SectionID     string `json:"section_id"`
	SubsectionID  string `json:"subsection_id"`
	Seq           int64  `json:"seq"`
}

// Target is the subsection that receives newly assigned questions.
type Target struct {
	SectionID    string `json:"section_id"`
	SubsectionID string `json:"subsection_id"`
}

// Field names an editable marking value.
type Field string

const (
	FieldMarks         Field = "marks"
	FieldNegativeMarks Field = "negative_marks"
)

// Draft is the whole editor state. It is JSON-serializable so it can be parked
// between requests.
type Draft struct {
	ID          string                 `json:"id"`
	AuthorID    string                 `json:"author_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Duration    string                 `json:"duration_minutes"`
	Sections    map[string]*Section    `json:"sections"`
	Subsections map[string]*Subsection `json:"subsections"`
	Assignments map[string]*Assignment `json:"assignments"`
	Active      *Target                `json:"active,omitempty"`
	Search      string                 `json:"search"`
	Expanded    map[string]bool        `json:"expanded"`
	Seq         int64                  `json:"seq"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// New starts an empty draft for the author.
func New(authorID string) *Draft {
	now := time.Now().UTC()
	return &Draft{
		ID:          newID(),
		AuthorID:    authorID,
		Duration:    DefaultDuration,
		Sections:    make(map[string]*Section),
		Subsections: make(map[string]*Subsection),
		Assignments: make(map[string]*Assignment),
		Expanded:    make(map[string]bool),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Normalize restores empty tables after decoding.
func (d *Draft) Normalize() {
	if d.Sections == nil {
		d.Sections = make(map[string]*Section)
	}
	if d.Subsections == nil {
		d.Subsections = make(map[string]*Subsection)
	}
	if d.Assignments == nil {
		d.Assignments = make(map[string]*Assignment)
	}
	if d.Expanded == nil {
		d.Expanded = make(map[string]bool)
	}
}

// SetDetails stores the header fields as typed.
func (d *Draft) SetDetails(title, description, duration string) {
	d.Title = title
	d.Description = description
	d.Duration = duration
	d.touch()
}

// AddSection appends a section and expands it.
func (d *Draft) AddSection(name string) (*Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(MsgSectionNameRequired)
	}

	s := &Section{
		ID:    newID(),
		Name:  name,
		Order: len(d.Sections),
		Seq:   d.next(),
	}
	d.Sections[s.ID] = s
	d.Expanded[s.ID] = true
	d.touch()
	return s, nil
}

// DeleteSection removes a section with its subsections and assignments.
// Nothing changes unless the author confirmed.
func (d *Draft) DeleteSection(sectionID string, confirmed bool) error {
	if _, ok := d.Sections[sectionID]; !ok {
		return ErrSectionNotFound
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	for id, sub := range d.Subsections {
		if sub.SectionID == sectionID {
			delete(d.Subsections, id)
		}
	}
	for qid, a := range d.Assignments {
		if a.SectionID == sectionID {
			delete(d.Assignments, qid)
		}
	}
	if d.Active != nil && d.Active.SectionID == sectionID {
		d.Active = nil
	}
	delete(d.Expanded, sectionID)
	delete(d.Sections, sectionID)
	d.touch()
	return nil
}

// AddSubsection appends a subsection to a section and expands the section.
func (d *Draft) AddSubsection(sectionID, name string) (*Subsection, error) {
	if _, ok := d.Sections[sectionID]; !ok {
		return nil, ErrSectionNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(MsgSubsectionNameRequired)
	}

	sub := &Subsection{
		ID:        newID(),
		SectionID: sectionID,
		Name:      name,
		Order:     len(d.subsectionsOf(sectionID)),
		Seq:       d.next(),
	}
	d.Subsections[sub.ID] = sub
	d.Expanded[sectionID] = true
	d.touch()
	return sub, nil
}

// DeleteSubsection removes a subsection and the questions assigned to it.
func (d *Draft) DeleteSubsection(sectionID, subsectionID string, confirmed bool) error {
	sub, ok := d.Subsections[subsectionID]
	if !ok || sub.SectionID != sectionID {
		return ErrSubsectionNotFound
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	for qid, a := range d.Assignments {
		if a.SubsectionID == subsectionID {
			delete(d.Assignments, qid)
		}
	}
	if d.Active != nil && d.Active.SubsectionID == subsectionID {
		d.Active = nil
	}
	delete(d.Subsections, subsectionID)
	d.touch()
	return nil
}

// SetActive selects the assignment target.
func (d *Draft) SetActive(sectionID, subsectionID string) error {
	sub, ok := d.Subsections[subsectionID]
	if !ok || sub.SectionID != sectionID {
		return ErrSubsectionNotFound
	}
	d.Active = &Target{SectionID: sectionID, SubsectionID: subsectionID}
	d.touch()
	return nil
}

// ToggleExpanded flips a section's expanded flag and returns the new value.
func (d *Draft) ToggleExpanded(sectionID string) (bool, error) {
	if _, ok := d.Sections[sectionID]; !ok {
		return false, ErrSectionNotFound
	}
	d.Expanded[sectionID] = !d.Expanded[sectionID]
	d.touch()
	return d.Expanded[sectionID], nil
}

// SetSearch stores the question-bank filter text.
func (d *Draft) SetSearch(q string) {
	d.Search = q
	d.touch()
}

// Filter applies the search text to the bank: a case-insensitive substring
// match on the custom ID. A blank filter keeps everything.
func (d *Draft) Filter(bank []model.Question) []model.Question {
	q := strings.ToLower(strings.TrimSpace(d.Search))
	if q == "" {
		return bank
	}
	out := make([]model.Question, 0, len(bank))
	for _, item := range bank {
		if strings.Contains(strings.ToLower(item.CustomID), q) {
			out = append(out, item)
		}
	}
	return out
}

// ToggleQuestion assigns, moves or unassigns a question relative to the
// active target. It reports whether the question is assigned afterwards.
// A move resets marking to the question defaults and keeps the question's
// position in insertion order.
func (d *Draft) ToggleQuestion(q model.Question) (bool, error) {
	if d.Active == nil {
		return false, invalid(MsgSelectTarget)
	}

	existing, ok := d.Assignments[q.ID]
	if ok && existing.SubsectionID == d.Active.SubsectionID {
		delete(d.Assignments, q.ID)
		d.touch()
		return false, nil
	}

	seq := int64(0)
	if ok {
		seq = existing.Seq
	} else {
		seq = d.next()
	}
	d.Assignments[q.ID] = &Assignment{
		QuestionID:    q.ID,
		Marks:         formatNumber(q.Marks),
		NegativeMarks: formatNumber(q.Penalty),
		SectionID:     d.Active.SectionID,
		SubsectionID:  d.Active.SubsectionID,
		Seq:           seq,
	}
	d.touch()
	return true, nil
}

// EditMarks replaces one marking field of an assigned question with the raw
// input. Unassigned questions are ignored; the return value reports a change.
func (d *Draft) EditMarks(questionID string, field Field, value string) (bool, error) {
	if field != FieldMarks && field != FieldNegativeMarks {
		return false, ErrUnknownField
	}
	a, ok := d.Assignments[questionID]
	if !ok {
		return false, nil
	}
	if field == FieldMarks {
		a.Marks = value
	} else {
		a.NegativeMarks = value
	}
	d.touch()
	return true, nil
}

// sortedSections returns sections by order, creation breaking ties.
func (d *Draft) sortedSections() []*Section {
	out := make([]*Section, 0, len(d.Sections))
	for _, s := range d.Sections {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func (d *Draft) subsectionsOf(sectionID string) []*Subsection {
	var out []*Subsection
	for _, sub := range d.Subsections {
		if sub.SectionID == sectionID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// assignmentsIn returns a subsection's questions in insertion order.
func (d *Draft) assignmentsIn(subsectionID string) []*Assignment {
	var out []*Assignment
	for _, a := range d.Assignments {
		if a.SubsectionID == subsectionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (d *Draft) next() int64 {
	d.Seq++
	return d.Seq
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now().UTC()
}

func newID() string {
	return ulid.Make().String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
