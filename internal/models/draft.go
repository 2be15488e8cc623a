package models

import "time"

// TimestampLayout is the ISO-8601 layout used for draft and submission times.
const TimestampLayout = time.RFC3339

// Draft is a resumable snapshot of an in-progress session. A Draft value is
// never mutated after creation; saving again produces a new value.
type Draft struct {
	ID           string             `json:"id"`
	Identity     Identity           `json:"identity"`
	Answers      map[string]float64 `json:"answers"`
	Observations map[string]string  `json:"observations"`
	Position     int                `json:"position"`
	SavedAt      string             `json:"saved_at"`
	Completed    bool               `json:"completed"`
}

// SubmissionPayload is the terminal, non-resumable record of a completed session.
type SubmissionPayload struct {
	ID           string             `json:"id" validate:"required,uuid4"`
	Identity     Identity           `json:"identity"`
	Answers      map[string]float64 `json:"answers" validate:"required"`
	Observations map[string]string  `json:"observations" validate:"required"`
	SubmittedAt  string             `json:"submitted_at" validate:"required"`
}

// CopyAnswers returns an independent copy of an answer map. A nil input
// yields an empty, non-nil map.
func CopyAnswers(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CopyObservations returns an independent copy of an observation map.
func CopyObservations(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
