package community

import (
	"context"
	"fmt"
	"slices"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// DefaultReconcileGrace separates the two scans of a reconciliation pass.
const DefaultReconcileGrace = 5 * time.Second

// Reconciler rewrites counters that drifted from the records they count,
// such as after a partial multi-write.
//
// Protocols write their records before their counters, so a live system
// shows short-lived drift on every write. A counter is only repaired when
// two scans taken grace apart report the same drift, and the repair is a
// compare-and-set against the stored value both scans saw.
type Reconciler struct {
	counters store.CounterStore
	grace    time.Duration
}

func NewReconciler(counters store.CounterStore, grace time.Duration) *Reconciler {
	return &Reconciler{counters: counters, grace: grace}
}

// Report maps each counter to the number of records repaired.
type Report map[store.Counter]int

func (r Report) Total() int {
	n := 0
	for _, v := range r {
		n += v
	}
	return n
}

// Run repairs every counter and reports how many records it changed.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	report := make(Report, len(store.Counters))
	first, err := r.scan(ctx)
	if err != nil || len(first) == 0 {
		return report, err
	}

	timer := time.NewTimer(r.grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return report, ctx.Err()
	case <-timer.C:
	}

	second, err := r.scan(ctx)
	if err != nil {
		return report, err
	}
	for _, c := range store.Counters {
		for _, d := range second[c] {
			if !slices.Contains(first[c], d) {
				continue
			}
			written, err := r.counters.CompareAndSet(ctx, c, d.ID, d.Stored, d.Actual)
			if err != nil {
				return report, fmt.Errorf("repair %s %d: %w", c, d.ID, err)
			}
			if !written {
				continue
			}
			log.WithFields(log.Fields{
				"counter": c.String(),
				"id":      d.ID,
				"stored":  d.Stored,
				"actual":  d.Actual,
			}).Warn("Counter drift repaired")
			observability.CounterDriftRepairedTotal.WithLabelValues(c.String()).Inc()
			report[c]++
		}
	}
	return report, nil
}

// scan returns the drifted records of every counter, omitting counters
// without drift.
func (r *Reconciler) scan(ctx context.Context) (map[store.Counter][]store.Tally, error) {
	out := make(map[store.Counter][]store.Tally)
	for _, c := range store.Counters {
		drift, err := r.counters.Drift(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("drift %s: %w", c, err)
		}
		if len(drift) > 0 {
			out[c] = drift
		}
	}
	return out, nil
}
