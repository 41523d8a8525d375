package community

import (
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/observability"
)

// Voting moves a (voter, target) pair between not-voted and voted.
// Question and answer services share one instance.
type Voting struct {
	ledger   *Ledger
	counters *Counters
	targets  *TargetResolver
}

func NewVoting(ledger *Ledger, counters *Counters, targets *TargetResolver) *Voting {
	return &Voting{ledger: ledger, counters: counters, targets: targets}
}

// lookup fetches the target and the voter's existing vote concurrently.
func (v *Voting) lookup(ctx context.Context, t Target, voterID int64) (*Votable, *models.Vote, error) {
	var (
		target   *Votable
		existing *models.Vote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		target, err = v.targets.Resolve(gctx, t)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = v.ledger.FindVote(gctx, voterID, t)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return target, existing, nil
}

// Vote records voterID's vote on t and credits the target and its creator.
//
// The ledger insert happens before the counter writes: when two calls race
// past the existence check, the storage uniqueness rejects one of them with
// Conflict and only the winner touches the counters.
func (v *Voting) Vote(ctx context.Context, t Target, voterID int64) (*models.Vote, error) {
	vote, err := v.vote(ctx, t, voterID)
	observability.VotesTotal.WithLabelValues(string(t.Kind), "vote", outcome(err)).Inc()
	return vote, err
}

func (v *Voting) vote(ctx context.Context, t Target, voterID int64) (*models.Vote, error) {
	target, existing, err := v.lookup(ctx, t, voterID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("Voted")
	}

	vote, err := v.ledger.RecordVote(ctx, voterID, t)
	if err != nil {
		return nil, err
	}

	err = newMultiWrite("vote").
		add("target_votes", func(ctx context.Context) error {
			return v.counters.AdjustVoteCount(ctx, t, 1)
		}).
		add("creator_votes", func(ctx context.Context) error {
			return v.counters.AdjustUserVoteCount(ctx, target.CreatorID, 1)
		}).
		run(ctx)
	if err != nil {
		return vote, err
	}

	log.WithFields(log.Fields{"target": t.String(), "voter_id": voterID}).Debug("Vote recorded")
	return vote, nil
}

// Unvote removes voterID's vote on t and debits the target and its creator.
func (v *Voting) Unvote(ctx context.Context, t Target, voterID int64) error {
	err := v.unvote(ctx, t, voterID)
	observability.VotesTotal.WithLabelValues(string(t.Kind), "unvote", outcome(err)).Inc()
	return err
}

func (v *Voting) unvote(ctx context.Context, t Target, voterID int64) error {
	target, existing, err := v.lookup(ctx, t, voterID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFound("You have not voted")
	}

	deleted, err := v.ledger.DeleteVote(ctx, existing.ID)
	if err != nil {
		return err
	}
	if !deleted {
		// a concurrent unvote removed it first
		return apperr.NotFound("You have not voted")
	}

	err = newMultiWrite("unvote").
		add("target_votes", func(ctx context.Context) error {
			return v.counters.AdjustVoteCount(ctx, t, -1)
		}).
		add("creator_votes", func(ctx context.Context) error {
			return v.counters.AdjustUserVoteCount(ctx, target.CreatorID, -1)
		}).
		run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"target": t.String(), "voter_id": voterID}).Debug("Vote removed")
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.Is(err, apperr.KindConflict):
		return "conflict"
	case apperr.Is(err, apperr.KindNotFound):
		return "not_found"
	case IsPartialWrite(err):
		return "partial"
	}
	return "error"
}
