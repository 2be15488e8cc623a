package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrison/dora/internal/submission"
)

// ErrNoSinks is returned by Deliver when no sink is configured.
var ErrNoSinks = errors.New("no report sinks configured")

// Sink delivers an assembled report somewhere outside the process.
type Sink interface {
	Name() string
	Send(ctx context.Context, doc *Document, req submission.ReportRequest) error
}

// Pipeline builds the report document and hands it to every sink. It
// implements submission.ReportDeliverer.
type Pipeline struct {
	builder *Builder
	sinks   []Sink
}

// NewPipeline creates a Pipeline. A nil builder gets the default Builder.
func NewPipeline(builder *Builder, sinks ...Sink) *Pipeline {
	if builder == nil {
		builder = NewBuilder()
	}
	return &Pipeline{builder: builder, sinks: sinks}
}

// Sinks returns the configured sink names in delivery order.
func (p *Pipeline) Sinks() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Deliver builds the report and sends it to each sink in order. Every sink
// is attempted; the result is true only if all of them succeeded, and the
// error joins the individual sink failures.
func (p *Pipeline) Deliver(ctx context.Context, req submission.ReportRequest) (bool, error) {
	if len(p.sinks) == 0 {
		return false, ErrNoSinks
	}

	doc, err := p.builder.Build(req)
	if err != nil {
		return false, err
	}

	var errs []error
	for _, sink := range p.sinks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		if err := sink.Send(ctx, doc, req); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return true, nil
}
