// Package submission drives the final submit of a questionnaire session:
// payload assembly, scoring, chart rendering, report delivery and handoff.
package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harrison/dora/internal/metrics"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/scoring"
	"github.com/harrison/dora/internal/session"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

var payloadValidate = validator.New()

// State is the orchestrator's position in the submit lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateCompleted
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Chart is a rendered image artifact.
type Chart struct {
	MIMEType string
	Data     []byte
}

// ChartRequest carries what the chart collaborator needs. Scores are in
// category order; categories without data must be drawn distinctly.
type ChartRequest struct {
	Title       string
	NoDataLabel string
	Scores      []scoring.CategoryScore
}

// ChartRenderer renders the per-category score chart.
type ChartRenderer interface {
	Render(ctx context.Context, req ChartRequest) (*Chart, error)
}

// ReportRequest is everything the report collaborator receives. Chart is
// nil when rendering failed.
type ReportRequest struct {
	Payload  models.SubmissionPayload
	Catalog  *models.Catalog
	Language models.Language
	Scores   []scoring.CategoryScore
	Chart    *Chart
}

// ReportDeliverer assembles the report and delivers it to an external channel.
// It may block; cancellation and timeouts follow ctx.
type ReportDeliverer interface {
	Deliver(ctx context.Context, req ReportRequest) (bool, error)
}

// HandoffFunc receives the payload once the session has completed.
type HandoffFunc func(payload models.SubmissionPayload)

// Logger defines the interface for logging submission progress and outcomes.
type Logger interface {
	LogSubmissionStart(payload models.SubmissionPayload)
	LogChartUnavailable(err error)
	LogDeliveryFailed(err error)
	LogSubmissionComplete(result Result)
	LogSubmissionFailed(err error)
}

// Config wires an Orchestrator's collaborators. Reports is required; the
// rest are optional.
type Config struct {
	Charts   ChartRenderer
	Reports  ReportDeliverer
	Handoff  HandoffFunc
	Logger   Logger
	Language models.Language

	// OnStateChange, if set, is called after every state transition, outside
	// the orchestrator's lock. Presentation layers use it for the
	// in-progress indicator.
	OnStateChange func(State)
}

// Result summarises a completed submission.
type Result struct {
	Payload     models.SubmissionPayload
	Scores      []scoring.CategoryScore
	Chart       *Chart
	ChartErr    error // non-nil when the report went out without a chart
	Delivered   bool
	DeliveryErr error // *DeliveryError when Delivered is false
	Duration    time.Duration
}

// Orchestrator guards a single session's submission. At most one submission
// is in flight at a time; after a completed submission the session is closed.
type Orchestrator struct {
	sess  *session.Session
	cfg   Config
	newID func() string

	mu    sync.Mutex
	state State
}

// NewOrchestrator creates an Orchestrator for sess.
func NewOrchestrator(sess *session.Session, cfg Config) *Orchestrator {
	if cfg.Reports == nil {
		panic("report deliverer cannot be nil")
	}
	if cfg.Language == "" {
		cfg.Language = models.LanguageES
	}
	return &Orchestrator{
		sess:  sess,
		cfg:   cfg,
		newID: func() string { return uuid.New().String() },
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs the submission. It returns ErrSubmissionInProgress or
// ErrAlreadyCompleted without side effects when not Idle, and an
// *AssemblyError when the payload cannot be built (the orchestrator is then
// Idle again). Chart and delivery failures do not fail the submission: they
// are logged and reported in Result, and the handoff still runs once.
func (o *Orchestrator) Submit(ctx context.Context) (*Result, error) {
	if err := o.begin(); err != nil {
		metrics.RecordSubmission(metrics.OutcomeRejected, 0)
		return nil, err
	}
	start := timeNow()

	payload, scores, err := o.assemble()
	if err != nil {
		o.fail(err)
		metrics.RecordSubmission(metrics.OutcomeFailed, timeNow().Sub(start))
		return nil, err
	}

	if o.cfg.Logger != nil {
		o.cfg.Logger.LogSubmissionStart(payload)
	}

	result := Result{Payload: payload, Scores: scores}

	result.Chart, result.ChartErr = o.renderChart(ctx, scores)
	if result.ChartErr != nil {
		metrics.RecordChartUnavailable()
		if o.cfg.Logger != nil {
			o.cfg.Logger.LogChartUnavailable(result.ChartErr)
		}
	}

	result.Delivered, result.DeliveryErr = o.deliver(ctx, ReportRequest{
		Payload:  payload,
		Catalog:  o.sess.Catalog(),
		Language: o.cfg.Language,
		Scores:   scores,
		Chart:    result.Chart,
	})
	if result.DeliveryErr != nil {
		metrics.RecordDeliveryFailure()
		if o.cfg.Logger != nil {
			o.cfg.Logger.LogDeliveryFailed(result.DeliveryErr)
		}
	}

	result.Duration = timeNow().Sub(start)
	o.transition(StateCompleted)

	if o.cfg.Handoff != nil {
		o.cfg.Handoff(payload)
	}
	if o.cfg.Logger != nil {
		o.cfg.Logger.LogSubmissionComplete(result)
	}
	metrics.RecordSubmission(metrics.OutcomeCompleted, result.Duration)

	return &result, nil
}

// begin performs the Idle -> Submitting transition.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	switch o.state {
	case StateSubmitting:
		o.mu.Unlock()
		return ErrSubmissionInProgress
	case StateCompleted:
		o.mu.Unlock()
		return ErrAlreadyCompleted
	}
	o.state = StateSubmitting
	o.mu.Unlock()

	o.notify(StateSubmitting)
	return nil
}

// fail logs err, passes through Failed and returns to Idle.
func (o *Orchestrator) fail(err error) {
	o.transition(StateFailed)
	if o.cfg.Logger != nil {
		o.cfg.Logger.LogSubmissionFailed(err)
	}
	o.transition(StateIdle)
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	o.state = to
	o.mu.Unlock()
	o.notify(to)
}

func (o *Orchestrator) notify(s State) {
	if o.cfg.OnStateChange != nil {
		o.cfg.OnStateChange(s)
	}
}

// assemble builds the payload from a fresh snapshot and scores it. Panics
// from scoring or validation are converted to an AssemblyError.
func (o *Orchestrator) assemble() (payload models.SubmissionPayload, scores []scoring.CategoryScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewAssemblyError("internal error", fmt.Errorf("panic: %v", r))
		}
	}()

	if o.sess == nil {
		return payload, nil, NewAssemblyError("no active session", nil)
	}
	if _, ok := o.sess.CurrentQuestion(); !ok {
		return payload, nil, NewAssemblyError("no current question", session.ErrNoQuestions)
	}

	snap := o.sess.Snapshot()
	payload = models.SubmissionPayload{
		ID:           o.newID(),
		Identity:     o.sess.Identity(),
		Answers:      snap.Answers,
		Observations: snap.Observations,
		SubmittedAt:  timeNow().UTC().Format(models.TimestampLayout),
	}
	if err := payloadValidate.Struct(payload); err != nil {
		return models.SubmissionPayload{}, nil, NewAssemblyError("invalid payload", err)
	}

	scores = scoring.ScoresByCategory(o.sess.Catalog(), payload.Answers, o.cfg.Language)
	return payload, scores, nil
}

// errNoChartRenderer marks a submission configured without a chart renderer.
var errNoChartRenderer = fmt.Errorf("no chart renderer configured")

func (o *Orchestrator) renderChart(ctx context.Context, scores []scoring.CategoryScore) (chart *Chart, err error) {
	if o.cfg.Charts == nil {
		return nil, errNoChartRenderer
	}
	defer func() {
		if r := recover(); r != nil {
			chart, err = nil, fmt.Errorf("chart renderer panic: %v", r)
		}
	}()

	labels := models.LabelsFor(o.cfg.Language)
	chart, err = o.cfg.Charts.Render(ctx, ChartRequest{
		Title:       labels.ChartTitle,
		NoDataLabel: labels.NoData,
		Scores:      scores,
	})
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	if chart == nil || len(chart.Data) == 0 {
		return nil, fmt.Errorf("render chart: empty image")
	}
	return chart, nil
}

func (o *Orchestrator) deliver(ctx context.Context, req ReportRequest) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, &DeliveryError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	delivered, derr := o.cfg.Reports.Deliver(ctx, req)
	switch {
	case derr != nil:
		return false, &DeliveryError{Err: derr}
	case !delivered:
		return false, &DeliveryError{Rejected: true}
	}
	return true, nil
}
