// Package saga runs multi-step remote operations where every step declares
// how to undo itself.
//
// Steps run strictly in order. When a step fails, the compensations of the
// steps already completed run in reverse order. Post-commit steps run once
// every step succeeded; they are not compensated, the operation is already
// durable when they run.
//
// A compensation or post-commit failure leaves something behind on the
// platform; it is reported as an errs.ErrConsistency error naming the
// resources involved.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
)

var tracer = otel.Tracer("github.com/dezobq/snapgram/internal/saga")

type Step struct {
	Name   string
	Action func(ctx context.Context) error
	// Compensate undoes Action. nil when the step has nothing to undo.
	Compensate func(ctx context.Context) error
	// Resource names what stays behind if Compensate (or a post-commit
	// Action) fails. Evaluated lazily since ids are known only at run time.
	Resource func() string
}

type Saga struct {
	op          string
	steps       []Step
	afterCommit []Step
}

func New(op string) *Saga {
	return &Saga{op: op}
}

// Step appends a step. compensate may be nil.
func (s *Saga) Step(name string, action, compensate func(ctx context.Context) error, resource func() string) *Saga {
	s.steps = append(s.steps, Step{Name: name, Action: action, Compensate: compensate, Resource: resource})
	return s
}

// AfterCommit appends a cleanup that runs only once every step succeeded.
func (s *Saga) AfterCommit(name string, action func(ctx context.Context) error, resource func() string) *Saga {
	s.afterCommit = append(s.afterCommit, Step{Name: name, Action: action, Resource: resource})
	return s
}

// Steps returns the names of the declared steps, post-commit ones last.
func (s *Saga) Steps() []string {
	names := make([]string, 0, len(s.steps)+len(s.afterCommit))
	for _, st := range s.steps {
		names = append(names, st.Name)
	}
	for _, st := range s.afterCommit {
		names = append(names, st.Name)
	}
	return names
}

// Run executes the saga. It returns the failing step's error unchanged when
// every compensation succeeded, and an errs.ErrConsistency error otherwise.
//
// A post-commit failure also yields an errs.ErrConsistency error, with a nil
// cause: the caller still owns a committed result.
func (s *Saga) Run(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "saga "+s.op)
	defer span.End()

	for i, st := range s.steps {
		span.AddEvent("step", withStep(st.Name))
		if err := st.Action(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, st.Name)
			return s.compensate(ctx, st.Name, err, s.steps[:i])
		}
	}

	// Un appelant qui abandonne ne doit pas empêcher le nettoyage.
	cleanupCtx := context.WithoutCancel(ctx)

	var failures []error
	var resources []string
	for _, st := range s.afterCommit {
		span.AddEvent("after_commit", withStep(st.Name))
		if err := st.Action(cleanupCtx); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", st.Name, err))
			resources = appendResource(resources, st.Resource)
		}
	}
	if len(failures) > 0 {
		err := errs.Consistency(s.op, nil, errors.Join(failures...), resources...)
		span.RecordError(err)
		logs.LogJSON("ERROR", "Post-commit cleanup failed", map[string]interface{}{
			"op":        s.op,
			"error":     err.Error(),
			"resources": resources,
		})
		return err
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, failed string, cause error, done []Step) error {
	cleanupCtx := context.WithoutCancel(ctx)

	var failures []error
	var resources []string
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.Compensate == nil {
			continue
		}
		logs.LogJSON("WARN", "Compensating step", map[string]interface{}{
			"op":     s.op,
			"step":   st.Name,
			"failed": failed,
		})
		if err := st.Compensate(cleanupCtx); err != nil {
			failures = append(failures, fmt.Errorf("compensate %s: %w", st.Name, err))
			resources = appendResource(resources, st.Resource)
		}
	}

	if len(failures) == 0 {
		return cause
	}

	err := errs.Consistency(s.op, cause, errors.Join(failures...), resources...)
	logs.LogJSON("ERROR", "Compensation failed", map[string]interface{}{
		"op":        s.op,
		"error":     err.Error(),
		"resources": resources,
	})
	return err
}

func appendResource(resources []string, resource func() string) []string {
	if resource == nil {
		return resources
	}
	if r := resource(); r != "" {
		return append(resources, r)
	}
	return resources
}

func withStep(name string) trace.EventOption {
	return trace.WithAttributes(attribute.String("saga.step", name))
}
