// Package scoring derives per-category aggregate scores from recorded answers.
package scoring

import (
	"math"

	"github.com/harrison/dora/internal/models"
)

// CategoryScore is the aggregate for one category. It is derived on demand
// and never stored.
type CategoryScore struct {
	CategoryID string
	Label      string
	Mean       float64 // mean of answered values; meaningless when !HasData
	Answered   int     // questions in the category with an answer
	Total      int     // questions in the category
	MaxValue   float64 // highest option value among the category's questions
	HasData    bool    // false when no question in the category is answered
}

// Value returns the mean, or NaN when the category has no data.
func (s CategoryScore) Value() float64 {
	if !s.HasData {
		return math.NaN()
	}
	return s.Mean
}

// Percent scales the mean to 0-100 against the highest option value of the
// category. ok is false for "no data" and for categories whose options top
// out at or below zero.
func (s CategoryScore) Percent() (pct float64, ok bool) {
	if !s.HasData || s.MaxValue <= 0 {
		return 0, false
	}
	pct = s.Mean / s.MaxValue * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// ScoresByCategory computes one score per category, in catalog category
// order. Unanswered questions are excluded from both the sum and the count;
// a category with no answered question reports HasData == false rather than
// a zero mean. The function has no side effects.
func ScoresByCategory(catalog *models.Catalog, answers map[string]float64, lang models.Language) []CategoryScore {
	if catalog == nil {
		return nil
	}

	scores := make([]CategoryScore, 0, len(catalog.Categories))
	for _, cat := range catalog.Categories {
		score := CategoryScore{
			CategoryID: cat.ID,
			Label:      cat.Name.In(lang),
		}

		sum := 0.0
		for _, q := range catalog.QuestionsIn(cat.ID) {
			score.Total++
			if m := q.MaxValue(); score.Total == 1 || m > score.MaxValue {
				score.MaxValue = m
			}
			v, ok := answers[q.ID]
			if !ok {
				continue
			}
			sum += v
			score.Answered++
		}

		if score.Answered > 0 {
			score.Mean = sum / float64(score.Answered)
			score.HasData = true
		}
		scores = append(scores, score)
	}

	return scores
}
