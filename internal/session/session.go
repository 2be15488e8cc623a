// Package session implements the questionnaire state machine: navigation
// over the catalog, answer and observation capture, and draft save/resume.
//
// A Session is owned by one respondent at a time and is not safe for
// concurrent use. All state changes go through its named commands.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/dora/internal/models"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

var (
	// ErrNoQuestions is returned by progressing commands when there is no
	// current question (empty catalog). The session cannot proceed.
	ErrNoQuestions = errors.New("no questions available")

	// ErrStaleDraft is returned by Restore when a draft no longer matches
	// the current catalog.
	ErrStaleDraft = errors.New("draft does not match the current catalog")

	// ErrCompletedDraft is returned by Restore for drafts flagged completed.
	ErrCompletedDraft = errors.New("draft is marked completed")

	// ErrSessionStarted is returned by Restore once the session has been
	// mutated by a command.
	ErrSessionStarted = errors.New("draft must be restored before the session starts")
)

// Session is one respondent's run through the questionnaire.
type Session struct {
	catalog  *models.Catalog
	identity models.Identity
	nav      *Navigator
	store    *Store
	draftID  string
	started  bool
}

// New creates a fresh session over catalog. The catalog is read-only for the
// lifetime of the session.
func New(catalog *models.Catalog, identity models.Identity) *Session {
	if catalog == nil {
		catalog = &models.Catalog{}
	}
	return &Session{
		catalog:  catalog,
		identity: identity,
		nav:      NewNavigator(catalog.Questions),
		store:    NewStore(),
	}
}

// Catalog returns the session's catalog.
func (s *Session) Catalog() *models.Catalog { return s.catalog }

// Identity returns the respondent identity.
func (s *Session) Identity() models.Identity { return s.identity }

// DraftID returns the identifier drafts of this session are saved under,
// or "" if no draft has been saved or restored yet.
func (s *Session) DraftID() string { return s.draftID }

// CurrentQuestion returns the question at the current position.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	return s.nav.Current()
}

// Prompt returns the localized prompt of q with identity placeholders filled in.
func (s *Session) Prompt(q models.Question, lang models.Language) string {
	return models.FillPlaceholders(q.Prompt.In(lang), s.identity)
}

// Position returns the current question index.
func (s *Session) Position() int { return s.nav.Position() }

// IsLast reports whether the current question is the last one.
func (s *Session) IsLast() bool { return s.nav.IsLast() }

// Progress returns the completion fraction in [0, 1].
func (s *Session) Progress() float64 {
	return s.nav.Progress(s.store.IsAnswered)
}

// Answer returns the value recorded for a question.
func (s *Session) Answer(questionID string) (float64, bool) {
	return s.store.Answer(questionID)
}

// Observation returns the observation recorded for a question.
func (s *Session) Observation(questionID string) (string, bool) {
	return s.store.Observation(questionID)
}

// RecordAnswer stores value for the current question without moving.
func (s *Session) RecordAnswer(value float64) error {
	q, ok := s.nav.Current()
	if !ok {
		return ErrNoQuestions
	}
	s.started = true
	s.store.RecordAnswer(q.ID, value)
	return nil
}

// RecordObservation stores free text for the current question.
func (s *Session) RecordObservation(text string) error {
	q, ok := s.nav.Current()
	if !ok {
		return ErrNoQuestions
	}
	s.started = true
	s.store.RecordObservation(q.ID, text)
	return nil
}

// Select records value for the current question and advances. On the last
// question the position stays put and the caller should offer submission.
func (s *Session) Select(value float64) error {
	if err := s.RecordAnswer(value); err != nil {
		return err
	}
	s.nav.Advance()
	return nil
}

// Advance moves to the next question, clamped at the last one.
func (s *Session) Advance() error {
	if _, ok := s.nav.Current(); !ok {
		return ErrNoQuestions
	}
	s.started = true
	s.nav.Advance()
	return nil
}

// Retreat moves to the previous question, clamped at the first one.
func (s *Session) Retreat() error {
	if _, ok := s.nav.Current(); !ok {
		return ErrNoQuestions
	}
	s.started = true
	s.nav.Retreat()
	return nil
}

// Snapshot returns immutable copies of the answer and observation maps.
func (s *Session) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// SaveDraft builds a new Draft value from the current state. Nothing is
// persisted; the caller hands the draft to its own storage.
func (s *Session) SaveDraft() models.Draft {
	if s.draftID == "" {
		s.draftID = uuid.New().String()
	}
	snap := s.store.Snapshot()
	return models.Draft{
		ID:           s.draftID,
		Identity:     s.identity,
		Answers:      snap.Answers,
		Observations: snap.Observations,
		Position:     s.nav.Position(),
		SavedAt:      timeNow().UTC().Format(models.TimestampLayout),
		Completed:    false,
	}
}

// Restore seeds answers, observations and position from draft in one step.
// It must run before any other command; restoring the same draft twice
// yields the same state. Drafts whose position or question IDs do not fit
// the current catalog are rejected with ErrStaleDraft and leave the session
// untouched.
func (s *Session) Restore(draft models.Draft) error {
	if s.started {
		return ErrSessionStarted
	}
	if draft.Completed {
		return ErrCompletedDraft
	}
	if err := s.checkDraft(draft); err != nil {
		return err
	}

	s.store.replace(draft.Answers, draft.Observations)
	s.nav.RestoreTo(draft.Position)
	s.draftID = draft.ID
	return nil
}

// checkDraft verifies the draft still fits the session's catalog.
func (s *Session) checkDraft(draft models.Draft) error {
	if draft.Position < 0 || draft.Position >= s.nav.Total() {
		return fmt.Errorf("%w: position %d outside 0..%d", ErrStaleDraft, draft.Position, s.nav.Total()-1)
	}

	var unknown []string
	for id := range draft.Answers {
		if !s.catalog.HasQuestion(id) {
			unknown = append(unknown, id)
		}
	}
	for id := range draft.Observations {
		if _, dup := draft.Answers[id]; !dup && !s.catalog.HasQuestion(id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown questions %s", ErrStaleDraft, strings.Join(unknown, ", "))
	}
	return nil
}
