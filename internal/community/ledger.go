package community

import (
	"context"
	"errors"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Ledger owns vote records. The storage uniqueness on (voter, target) is the
// only duplicate guard that holds under concurrency.
type Ledger struct {
	votes store.VoteStore
}

func NewLedger(votes store.VoteStore) *Ledger {
	return &Ledger{votes: votes}
}

// FindVote returns nil without error when voterID has not voted on t.
func (l *Ledger) FindVote(ctx context.Context, voterID int64, t Target) (*models.Vote, error) {
	v, err := l.votes.FindVote(ctx, voterID, t.Kind, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// RecordVote inserts a vote, reporting Conflict if one already exists.
func (l *Ledger) RecordVote(ctx context.Context, voterID int64, t Target) (*models.Vote, error) {
	v := &models.Vote{VoterID: voterID, TargetKind: t.Kind, TargetID: t.ID}
	err := l.votes.InsertVote(ctx, v)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, apperr.Conflict("Voted")
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVote reports whether the vote still existed.
func (l *Ledger) DeleteVote(ctx context.Context, voteID int64) (bool, error) {
	return l.votes.DeleteVote(ctx, voteID)
}

// DeleteAllVotesForTarget is a no-op for a target without votes.
func (l *Ledger) DeleteAllVotesForTarget(ctx context.Context, t Target) error {
	_, err := l.votes.DeleteVotesForTarget(ctx, t.Kind, t.ID)
	return err
}
