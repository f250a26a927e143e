package model

// UpdateDraftDetailsRequest carries the raw form text of the test header.
// Duration stays a string until submit, like the form field it mirrors.
type UpdateDraftDetailsRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes string `json:"duration_minutes"`
}

// NameRequest names a new section or subsection.
type NameRequest struct {
	Name string `json:"name"`
}

// SetActiveTargetRequest selects the subsection that receives assignments.
type SetActiveTargetRequest struct {
	SectionID    string `json:"section_id" binding:"required"`
	SubsectionID string `json:"subsection_id" binding:"required"`
}

// SetSearchRequest updates the question-bank filter.
type SetSearchRequest struct {
	Query string `json:"query"`
}

// EditMarksRequest edits one marking field of an assigned question.
type EditMarksRequest struct {
	Field string `json:"field" binding:"required,oneof=marks negative_marks"`
	Value string `json:"value"`
}

// GoToRequest jumps the test viewer to an index.
type GoToRequest struct {
	Index *int `json:"index" binding:"required"`
}
