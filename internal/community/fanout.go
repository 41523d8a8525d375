package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
)

// StepError is one failed step of a multi-write.
type StepError struct {
	Step string
	Err  error
}

func (e StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e StepError) Unwrap() error { return e.Err }

// PartialWriteError reports a multi-write whose steps did not all apply.
// Completed steps are not rolled back, so counters may have drifted.
type PartialWriteError struct {
	Op        string
	Completed []string
	Failed    []StepError
}

func (e *PartialWriteError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s: %d of %d steps failed: %s",
		e.Op, len(e.Failed), len(e.Failed)+len(e.Completed), strings.Join(parts, "; "))
}

func (e *PartialWriteError) Unwrap() []error {
	out := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Err
	}
	return out
}

// IsPartialWrite reports whether err is, or wraps, a PartialWriteError.
func IsPartialWrite(err error) bool {
	var pw *PartialWriteError
	return errors.As(err, &pw)
}

type step struct {
	name string
	fn   func(context.Context) error
}

// multiWrite runs independent writes concurrently and waits for all of them.
// A failing step never cancels its siblings.
type multiWrite struct {
	op    string
	steps []step
}

func newMultiWrite(op string) *multiWrite {
	return &multiWrite{op: op}
}

func (m *multiWrite) add(name string, fn func(context.Context) error) *multiWrite {
	m.steps = append(m.steps, step{name: name, fn: fn})
	return m
}

func (m *multiWrite) run(ctx context.Context) error {
	var (
		g  errgroup.Group
		mu sync.Mutex
		pw = &PartialWriteError{Op: m.op}
	)
	for _, s := range m.steps {
		g.Go(func() error {
			err := s.fn(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				pw.Failed = append(pw.Failed, StepError{Step: s.name, Err: err})
			} else {
				pw.Completed = append(pw.Completed, s.name)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(pw.Failed) == 0 {
		return nil
	}
	for _, f := range pw.Failed {
		observability.PartialWritesTotal.WithLabelValues(m.op, f.Step).Inc()
	}
	log.WithFields(log.Fields{
		"op":        m.op,
		"completed": pw.Completed,
		"failed":    len(pw.Failed),
	}).WithError(pw).Warn("Multi-write left steps undone")
	return pw
}
