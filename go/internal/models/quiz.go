package models

// Label identifies one of the two categories of a quiz.
type Label string

const (
	LabelX Label = "x"
	LabelY Label = "y"
)

// Valid reports whether l is one of the two quiz categories.
func (l Label) Valid() bool {
	return l == LabelX || l == LabelY
}

// Opposite returns the other category.
func (l Label) Opposite() Label {
	if l == LabelX {
		return LabelY
	}
	return LabelX
}

// Quiz is the catalog metadata of a quiz definition.
type Quiz struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LabelX      string `json:"label_x"`
	LabelY      string `json:"label_y"`
	TotalImages int    `json:"total_images"`
	CreatedAt   string `json:"created_at"` // ISO-8601 as written by the catalog, timezone optional
}

// QuizLabels holds the display names of both categories.
type QuizLabels struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Labels returns the display names of the quiz categories.
func (q Quiz) Labels() QuizLabels {
	return QuizLabels{X: q.LabelX, Y: q.LabelY}
}

// RoundDefinition is one image of a session and its correct category.
type RoundDefinition struct {
	ImageRef     string `json:"imageUrl"`
	CorrectLabel Label  `json:"label"`
}
