package editor

import (
	"math"
	"strconv"
	"strings"

	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/validator"
)

// Submit validates the draft and flattens it into a TestInput. Checks run in a
// fixed order and the first failure is returned as a *ValidationError.
// Question order is global across the test, numbered from zero by section,
// then subsection, then assignment order.
func (d *Draft) Submit(authorID string) (model.TestInput, error) {
	if strings.TrimSpace(authorID) == "" {
		return model.TestInput{}, invalid(MsgLoginRequired)
	}

	title := validator.SanitizeInput(d.Title)
	if title == "" {
		return model.TestInput{}, invalid(MsgTitleRequired)
	}

	duration, ok := parseNumber(d.Duration)
	if !ok || duration <= 0 {
		return model.TestInput{}, invalid(MsgDurationInvalid)
	}

	sections := d.sortedSections()
	if len(sections) == 0 {
		return model.TestInput{}, invalid(MsgSectionsRequired)
	}
	for _, s := range sections {
		if len(d.subsectionsOf(s.ID)) == 0 {
			return model.TestInput{}, invalid(`Section "%s" must have at least one subsection.`, s.Name)
		}
	}

	if len(d.Assignments) == 0 {
		return model.TestInput{}, invalid(MsgQuestionsRequired)
	}
	input := model.TestInput{
		Title:           title,
		Description:     validator.SanitizeInput(d.Description),
		DurationMinutes: duration,
		Sections:        make([]model.Section, 0, len(sections)),
	}

	order := 0
	for _, s := range sections {
		subs := d.subsectionsOf(s.ID)
		out := model.Section{
			ID:          s.ID,
			Name:        s.Name,
			Order:       s.Order,
			Subsections: make([]model.Subsection, 0, len(subs)),
		}
		for _, sub := range subs {
			out.Subsections = append(out.Subsections, model.Subsection{ID: sub.ID, Name: sub.Name, Order: sub.Order})
			for _, a := range d.assignmentsIn(sub.ID) {
				marks, ok := parseNumber(a.Marks)
				if !ok || marks <= 0 {
					return model.TestInput{}, invalid("Question in %s > %s must have positive marks.", s.Name, sub.Name)
				}
				negative, ok := parseNumber(a.NegativeMarks)
				if !ok || negative < 0 {
					return model.TestInput{}, invalid("Question in %s > %s cannot have negative marking less than 0.", s.Name, sub.Name)
				}
				input.Questions = append(input.Questions, model.TestQuestion{
					QuestionID:    a.QuestionID,
					Marks:         marks,
					NegativeMarks: negative,
					Order:         order,
					SectionID:     s.ID,
					SubsectionID:  sub.ID,
				})
				order++
			}
		}
		input.Sections = append(input.Sections, out)
	}

	if len(input.Questions) == 0 {
		return model.TestInput{}, invalid(MsgNothingAssigned)
	}
	return input, nil
}

// parseNumber reads form text as a finite number. Blank text counts as zero.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
