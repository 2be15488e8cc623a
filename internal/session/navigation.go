package session

import "github.com/harrison/dora/internal/models"

// Navigator holds the current position in the ordered question sequence.
// Position is always in [0, len(questions)-1] when a current question exists;
// for an empty catalog it sits at len(questions) (== 0), meaning "no question".
type Navigator struct {
	questions []models.Question
	position  int
}

// NewNavigator creates a Navigator positioned on the first question.
func NewNavigator(questions []models.Question) *Navigator {
	return &Navigator{questions: questions}
}

// Current returns the question at the current position. The boolean is
// false when the catalog is empty or the position is out of range, which
// callers must treat as terminal.
func (n *Navigator) Current() (models.Question, bool) {
	if n.position < 0 || n.position >= len(n.questions) {
		return models.Question{}, false
	}
	return n.questions[n.position], true
}

// Position returns the current index.
func (n *Navigator) Position() int {
	return n.position
}

// Total returns the number of questions.
func (n *Navigator) Total() int {
	return len(n.questions)
}

// IsLast reports whether the current question is the final one, i.e. the
// available action is "submit" rather than "next".
func (n *Navigator) IsLast() bool {
	return len(n.questions) > 0 && n.position == len(n.questions)-1
}

// Advance moves forward one question, stopping at the last one.
func (n *Navigator) Advance() {
	if n.position < len(n.questions)-1 {
		n.position++
	}
}

// Retreat moves back one question, stopping at the first one.
func (n *Navigator) Retreat() {
	if n.position > 0 {
		n.position--
	}
}

// RestoreTo sets the position directly. Bounds are not checked against the
// catalog; the caller supplies an index from a previously valid session.
func (n *Navigator) RestoreTo(index int) {
	n.position = index
}

// Progress returns (position + 1 if the current question is answered) / total,
// clamped to [0, 1]. An empty catalog reports 0.
func (n *Navigator) Progress(answered func(questionID string) bool) float64 {
	total := len(n.questions)
	if total == 0 {
		return 0
	}

	done := n.position
	if q, ok := n.Current(); ok && answered != nil && answered(q.ID) {
		done++
	}

	p := float64(done) / float64(total)
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}
