package community

import (
	"context"
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Counters applies deltas to denormalized counters. Each delta is a single
// atomic increment in storage, so concurrent deltas never overwrite each other.
type Counters struct {
	store store.CounterStore
}

func NewCounters(s store.CounterStore) *Counters {
	return &Counters{store: s}
}

func (c *Counters) AdjustVoteCount(ctx context.Context, t Target, delta int64) error {
	switch t.Kind {
	case models.TargetQuestion:
		return c.store.Adjust(ctx, store.QuestionVotes, t.ID, delta)
	case models.TargetAnswer:
		return c.store.Adjust(ctx, store.AnswerVotes, t.ID, delta)
	}
	return fmt.Errorf("adjust vote count: unknown target kind %q", t.Kind)
}

func (c *Counters) AdjustAnswerCount(ctx context.Context, questionID int64, delta int64) error {
	return c.store.Adjust(ctx, store.QuestionAnswers, questionID, delta)
}

func (c *Counters) AdjustQuestionCount(ctx context.Context, topicID int64, delta int64) error {
	return c.store.Adjust(ctx, store.TopicQuestions, topicID, delta)
}

// AdjustUserVoteCount changes the votes a user has received on their content.
func (c *Counters) AdjustUserVoteCount(ctx context.Context, userID int64, delta int64) error {
	return c.store.Adjust(ctx, store.UserVotes, userID, delta)
}
