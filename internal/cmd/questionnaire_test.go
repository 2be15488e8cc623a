package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/dora/internal/logger"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/session"
	"github.com/harrison/dora/internal/storage"
	"github.com/harrison/dora/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lt(es, pt string) models.LocalizedText {
	return models.LocalizedText{models.LanguageES: es, models.LanguagePT: pt}
}

func testCatalog() *models.Catalog {
	opts := []models.Option{
		{Value: 1, Label: lt("No", "Não")},
		{Value: 3, Label: lt("Parcialmente", "Parcialmente")},
		{Value: 5, Label: lt("Sí", "Sim")},
	}
	return &models.Catalog{
		Categories: []models.Category{{ID: "gov", Name: lt("Gobierno", "Governo")}},
		Questions: []models.Question{
			{ID: "gov-1", CategoryID: "gov", Prompt: lt("¿{providerName} tiene un marco TIC?", "{providerName} tem um quadro TIC?"), Options: opts},
			{ID: "gov-2", CategoryID: "gov", Prompt: lt("¿Pruebas anuales?", "Testes anuais?"), Options: opts},
		},
	}
}

func testIdentity() models.Identity {
	return models.Identity{UserName: "ana", ProviderName: "Acme", FinancialEntityName: "Banco Sur"}
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// stubDeliverer accepts every report.
type stubDeliverer struct {
	mu    sync.Mutex
	calls int
	ok    bool
	err   error
}

func (d *stubDeliverer) Deliver(ctx context.Context, req submission.ReportRequest) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.ok, d.err
}

type fixture struct {
	sess      *session.Session
	store     storage.Store
	deliverer *stubDeliverer
	out       *bytes.Buffer
}

func newFixture(t *testing.T, catalog *models.Catalog) *fixture {
	return &fixture{
		sess:      session.New(catalog, testIdentity()),
		store:     newTestStore(t),
		deliverer: &stubDeliverer{ok: true},
		out:       &bytes.Buffer{},
	}
}

func (f *fixture) run(t *testing.T, input string) *submission.Result {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	orch := submission.NewOrchestrator(f.sess, submission.Config{
		Reports:  f.deliverer,
		Handoff:  storeHandoff(ctx, f.sess, f.store, log),
		Logger:   log,
		Language: models.LanguageES,
	})
	q := newQuestionnaire(f.sess, orch, f.store, log, models.LanguageES, strings.NewReader(input), f.out, false)
	result, err := q.run(ctx)
	require.NoError(t, err)
	return result
}

func TestQuestionnaire_AnswerAndSubmit(t *testing.T) {
	f := newFixture(t, testCatalog())

	result := f.run(t, "3\n:note revisar en Q3\n1\n:submit\n")

	require.NotNil(t, result)
	assert.Equal(t, map[string]float64{"gov-1": 5, "gov-2": 1}, result.Payload.Answers)
	assert.Equal(t, map[string]string{"gov-2": "revisar en Q3"}, result.Payload.Observations)
	assert.True(t, result.Delivered)
	assert.Equal(t, 1, f.deliverer.calls)

	out := f.out.String()
	assert.Contains(t, out, "¿Acme tiene un marco TIC?")
	assert.Contains(t, out, "Progreso [")
	assert.Contains(t, out, "[1/2] Gobierno")
	assert.Contains(t, out, "[2/2] Gobierno")
	assert.Contains(t, out, "Last question answered")
	assert.Contains(t, out, "submitted")

	records, err := f.store.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.Payload.ID, records[0].Payload.ID)
}

func TestQuestionnaire_SubmitRemovesDraft(t *testing.T) {
	f := newFixture(t, testCatalog())

	f.run(t, "3\n:save\n1\n:submit\n")

	drafts, err := f.store.ListDrafts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts, "a submitted session leaves no resumable draft")
}

func TestQuestionnaire_NavigationAndMarkers(t *testing.T) {
	f := newFixture(t, testCatalog())

	f.run(t, "2\n:back\n:next\n:back\n:quit\n")

	assert.Equal(t, 0, f.sess.Position())
	assert.Contains(t, f.out.String(), " * 2) Parcialmente", "the recorded answer is marked when revisiting")
}

func TestQuestionnaire_InvalidInput(t *testing.T) {
	f := newFixture(t, testCatalog())

	f.run(t, "7\n0\nfoo\n:note\n:quit\n")

	out := f.out.String()
	assert.Equal(t, 2, strings.Count(out, "choose an option between 1 and 3"))
	assert.Contains(t, out, `unknown command "foo"`)
	assert.Contains(t, out, "usage: :note <text>")
	assert.Equal(t, 0, f.sess.Position())
	assert.Empty(t, f.sess.Snapshot().Answers)
}

func TestQuestionnaire_QuitSavesDraft(t *testing.T) {
	f := newFixture(t, testCatalog())

	result := f.run(t, "3\n:quit\n")
	assert.Nil(t, result)

	draft, err := f.store.LatestDraft(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"gov-1": 5}, draft.Answers)
	assert.Equal(t, 1, draft.Position)
	assert.Contains(t, f.out.String(), "--resume")
}

func TestQuestionnaire_EOFWithoutAnswersSavesNothing(t *testing.T) {
	f := newFixture(t, testCatalog())

	f.run(t, "")

	drafts, err := f.store.ListDrafts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestQuestionnaire_EOFWithAnswersSavesDraft(t *testing.T) {
	f := newFixture(t, testCatalog())

	f.run(t, "1\n")

	_, err := f.store.LatestDraft(context.Background(), "ana")
	assert.NoError(t, err)
}

func TestQuestionnaire_EmptyCatalog(t *testing.T) {
	f := newFixture(t, &models.Catalog{})

	result := f.run(t, "1\n:submit\n")

	assert.Nil(t, result)
	assert.Contains(t, f.out.String(), "no questions available")
	assert.Zero(t, f.deliverer.calls)
}

func TestQuestionnaire_DeliveryFailureStillCompletes(t *testing.T) {
	f := newFixture(t, testCatalog())
	f.deliverer.ok = false
	f.deliverer.err = errors.New("smtp down")

	result := f.run(t, "1\n1\n:submit\n")

	require.NotNil(t, result)
	assert.False(t, result.Delivered)
	assert.Contains(t, f.out.String(), "could not be delivered")

	records, err := f.store.ListSubmissions(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1, "the handoff runs even when delivery fails")
}

// failingSubmitter fails the first call with an assembly error.
type failingSubmitter struct {
	calls int
	next  submitter
}

func (s *failingSubmitter) Submit(ctx context.Context) (*submission.Result, error) {
	s.calls++
	if s.calls == 1 {
		return nil, submission.NewAssemblyError("payload validation", errors.New("boom"))
	}
	return s.next.Submit(ctx)
}

func TestQuestionnaire_AssemblyFailureAllowsRetry(t *testing.T) {
	f := newFixture(t, testCatalog())
	ctx := context.Background()
	orch := submission.NewOrchestrator(f.sess, submission.Config{Reports: f.deliverer})
	sub := &failingSubmitter{next: orch}

	q := newQuestionnaire(f.sess, sub, f.store, nil, models.LanguageES,
		strings.NewReader("1\n1\n:submit\n:submit\n"), f.out, false)
	result, err := q.run(ctx)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, sub.calls)
	assert.Contains(t, f.out.String(), "you can :submit again")
}

func TestQuestionnaire_CancelledContext(t *testing.T) {
	f := newFixture(t, testCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := submission.NewOrchestrator(f.sess, submission.Config{Reports: f.deliverer})
	q := newQuestionnaire(f.sess, orch, f.store, nil, models.LanguageES, strings.NewReader("1\n"), f.out, false)
	_, err := q.run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

// cancellingDeliverer simulates an interrupt arriving while the report is
// being delivered.
type cancellingDeliverer struct {
	cancel context.CancelFunc
}

func (d *cancellingDeliverer) Deliver(ctx context.Context, req submission.ReportRequest) (bool, error) {
	d.cancel()
	return false, ctx.Err()
}

func TestStoreHandoff_SurvivesInterruptDuringDelivery(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "dora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sess := session.New(testCatalog(), testIdentity())
	require.NoError(t, sess.Select(5))
	require.NoError(t, sess.Select(3))
	require.NoError(t, store.SaveDraft(context.Background(), sess.SaveDraft()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	log := logger.NewNoOpLogger()
	orch := submission.NewOrchestrator(sess, submission.Config{
		Reports:  &cancellingDeliverer{cancel: cancel},
		Handoff:  storeHandoff(ctx, sess, store, log),
		Logger:   log,
		Language: models.LanguageES,
	})

	result, err := orch.Submit(ctx)
	require.NoError(t, err)
	assert.False(t, result.Delivered)
	assert.Equal(t, submission.StateCompleted, orch.State())
	require.Error(t, ctx.Err())

	records, err := store.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.Payload.ID, records[0].Payload.ID)

	drafts, err := store.ListDrafts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestResumeDraft(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := session.New(testCatalog(), testIdentity())
	require.NoError(t, first.Select(3))
	require.NoError(t, store.SaveDraft(ctx, first.SaveDraft()))

	resumed := session.New(testCatalog(), testIdentity())
	require.NoError(t, resumeDraft(ctx, resumed, store, logger.NewNoOpLogger()))

	assert.Equal(t, 1, resumed.Position())
	assert.Equal(t, first.DraftID(), resumed.DraftID())
	v, ok := resumed.Answer("gov-1")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestResumeDraft_NoDraftStartsFresh(t *testing.T) {
	sess := session.New(testCatalog(), testIdentity())

	require.NoError(t, resumeDraft(context.Background(), sess, newTestStore(t), logger.NewNoOpLogger()))

	assert.Equal(t, 0, sess.Position())
	assert.Empty(t, sess.DraftID())
}

func TestResumeDraft_StaleDraftStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveDraft(ctx, models.Draft{
		ID:           "d-stale",
		Identity:     testIdentity(),
		Answers:      map[string]float64{"removed-question": 1},
		Observations: map[string]string{},
		Position:     0,
		SavedAt:      "2026-03-01T10:00:00Z",
	}))

	buf := &bytes.Buffer{}
	sess := session.New(testCatalog(), testIdentity())
	require.NoError(t, resumeDraft(ctx, sess, store, logger.NewConsoleLogger(buf, "info")))

	assert.Empty(t, sess.Snapshot().Answers)
	assert.Contains(t, buf.String(), "no longer matches the catalog")
}
