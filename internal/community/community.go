// Package community keeps the denormalized counters of questions, answers,
// topics and users consistent with the records they count.
//
// No storage transaction spans several records. Each protocol checks its
// preconditions, then fans out independent writes and waits for all of them.
// A failed write is reported as a *PartialWriteError and the applied ones
// stay applied; the Reconciler repairs the resulting drift.
package community

import "github.com/emilythestrangee/qa-forum/backend/internal/store"

// Community bundles the protocols built on one store.
type Community struct {
	Ledger     *Ledger
	Counters   *Counters
	Voting     *Voting
	Cascade    *Cascade
	Membership *Membership
	Reconciler *Reconciler
}

func New(s store.Store, notifier Notifier) *Community {
	ledger := NewLedger(s.Votes())
	counters := NewCounters(s.Counters())
	targets := NewTargetResolver(s.Questions(), s.Answers())
	return &Community{
		Ledger:     ledger,
		Counters:   counters,
		Voting:     NewVoting(ledger, counters, targets),
		Cascade:    NewCascade(ledger, counters, s.Questions(), s.Answers(), s.Topics()),
		Membership: NewMembership(s.Topics(), s.Users(), notifier),
		Reconciler: NewReconciler(s.Counters(), DefaultReconcileGrace),
	}
}
