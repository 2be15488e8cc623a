package session

import "github.com/harrison/dora/internal/models"

// Store holds the answer and observation maps of one session. The two maps
// have independent lifecycles: a question may have an observation without an
// answer and vice versa.
type Store struct {
	answers      map[string]float64
	observations map[string]string
}

// Snapshot is an immutable copy of both maps taken at one point in time.
type Snapshot struct {
	Answers      map[string]float64
	Observations map[string]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		answers:      make(map[string]float64),
		observations: make(map[string]string),
	}
}

// RecordAnswer inserts or overwrites the value chosen for a question. The
// value is not checked against the question's options.
func (s *Store) RecordAnswer(questionID string, value float64) {
	s.answers[questionID] = value
}

// RecordObservation inserts or overwrites free text for a question. An empty
// string is stored and is distinct from an absent observation.
func (s *Store) RecordObservation(questionID, text string) {
	s.observations[questionID] = text
}

// Answer returns the recorded value for a question.
func (s *Store) Answer(questionID string) (float64, bool) {
	v, ok := s.answers[questionID]
	return v, ok
}

// Observation returns the recorded text for a question.
func (s *Store) Observation(questionID string) (string, bool) {
	v, ok := s.observations[questionID]
	return v, ok
}

// IsAnswered reports whether a question has an answer.
func (s *Store) IsAnswered(questionID string) bool {
	_, ok := s.answers[questionID]
	return ok
}

// AnswerCount returns the number of answered questions.
func (s *Store) AnswerCount() int {
	return len(s.answers)
}

// Snapshot returns deep copies of both maps. Later writes to the store never
// show through a snapshot already taken.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Answers:      models.CopyAnswers(s.answers),
		Observations: models.CopyObservations(s.observations),
	}
}

// replace swaps in copies of the given maps.
func (s *Store) replace(answers map[string]float64, observations map[string]string) {
	s.answers = models.CopyAnswers(answers)
	s.observations = models.CopyObservations(observations)
}
