package viewer

// Viewer is a cursor over a loaded paper. The index always stays in [0, N-1].
type Viewer struct {
	paper *Paper
	index int
}

// New places the cursor on the first question.
func New(p *Paper) *Viewer {
	return &Viewer{paper: p}
}

// Restore places the cursor at a previously saved index, clamped to the paper.
func Restore(p *Paper, index int) *Viewer {
	v := New(p)
	v.index = v.clamp(index)
	return v
}

// State is what the student sees after each navigation.
type State struct {
	TestID          string  `json:"test_id"`
	Title           string  `json:"title"`
	DurationMinutes float64 `json:"duration_minutes"`
	Index           int     `json:"index"`
	Number          int     `json:"number"`
	Total           int     `json:"total"`
	IsFirst         bool    `json:"is_first"`
	IsLast          bool    `json:"is_last"`
	Moved           bool    `json:"moved"`
	Current         Item    `json:"current"`
}

// Index returns the cursor position.
func (v *Viewer) Index() int { return v.index }

// Len returns the number of questions.
func (v *Viewer) Len() int { return len(v.paper.Items) }

// Current returns the question under the cursor.
func (v *Viewer) Current() Item { return v.paper.Items[v.index] }

// Next advances unless on the last question. It reports whether the cursor moved.
func (v *Viewer) Next() bool { return v.GoTo(v.index + 1) }

// Previous steps back unless on the first question.
func (v *Viewer) Previous() bool { return v.GoTo(v.index - 1) }

// GoTo jumps to i, clamped into range.
func (v *Viewer) GoTo(i int) bool {
	target := v.clamp(i)
	moved := target != v.index
	v.index = target
	return moved
}

// State snapshots the cursor; moved tells the client to scroll back to the top.
func (v *Viewer) State(moved bool) State {
	return State{
		TestID:          v.paper.TestID,
		Title:           v.paper.Title,
		DurationMinutes: v.paper.DurationMinutes,
		Index:           v.index,
		Number:          v.index + 1,
		Total:           v.Len(),
		IsFirst:         v.index == 0,
		IsLast:          v.index == v.Len()-1,
		Moved:           moved,
		Current:         v.Current(),
	}
}

func (v *Viewer) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if last := v.Len() - 1; i > last {
		return last
	}
	return i
}
