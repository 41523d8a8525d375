package community

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Cascade creates and deletes content together with the counters and
// vote records that depend on it. Every fan-out is a best-effort multi-write.
type Cascade struct {
	ledger    *Ledger
	counters  *Counters
	questions store.QuestionStore
	answers   store.AnswerStore
	topics    store.TopicStore
}

func NewCascade(ledger *Ledger, counters *Counters, questions store.QuestionStore, answers store.AnswerStore, topics store.TopicStore) *Cascade {
	return &Cascade{
		ledger:    ledger,
		counters:  counters,
		questions: questions,
		answers:   answers,
		topics:    topics,
	}
}

// CreateQuestion inserts q and counts it in its topic, if any.
func (c *Cascade) CreateQuestion(ctx context.Context, q *models.Question) error {
	if err := c.questions.CreateQuestion(ctx, q); err != nil {
		return err
	}
	if q.TopicID == nil {
		return nil
	}
	return c.counters.AdjustQuestionCount(ctx, *q.TopicID, 1)
}

// DeleteQuestion removes q, its votes and its answers, and takes q's votes
// away from its creator and q away from its topic's count.
func (c *Cascade) DeleteQuestion(ctx context.Context, q *models.Question) error {
	mw := newMultiWrite("delete_question").
		add("question", func(ctx context.Context) error {
			return c.questions.DeleteQuestion(ctx, q.ID)
		}).
		add("votes", func(ctx context.Context) error {
			return c.ledger.DeleteAllVotesForTarget(ctx, QuestionTarget(q.ID))
		}).
		add("creator_votes", func(ctx context.Context) error {
			return c.counters.AdjustUserVoteCount(ctx, q.CreatorID, -q.VoteCount)
		}).
		add("answers", func(ctx context.Context) error {
			return c.deleteAnswersOf(ctx, q.ID)
		})
	if q.TopicID != nil {
		topicID := *q.TopicID
		mw.add("topic_questions", func(ctx context.Context) error {
			return c.counters.AdjustQuestionCount(ctx, topicID, -1)
		})
	}
	return mw.run(ctx)
}

// deleteAnswersOf removes every answer of a question being deleted.
// The parent's answer count is not touched since the parent goes too.
func (c *Cascade) deleteAnswersOf(ctx context.Context, questionID int64) error {
	answers, _, err := c.answers.ListAnswers(ctx, models.AnswerFilter{QuestionID: questionID}, models.All())
	if err != nil {
		return fmt.Errorf("list answers: %w", err)
	}
	var errs []error
	for _, a := range answers {
		if err := c.answerFanOut(&a, false).run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("answer %d: %w", a.ID, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteAnswer removes a, its votes, takes a's votes away from its creator
// and a away from its question's answer count.
func (c *Cascade) DeleteAnswer(ctx context.Context, a *models.Answer) error {
	return c.answerFanOut(a, true).run(ctx)
}

func (c *Cascade) answerFanOut(a *models.Answer, withParent bool) *multiWrite {
	mw := newMultiWrite("delete_answer").
		add("answer", func(ctx context.Context) error {
			return c.answers.DeleteAnswer(ctx, a.ID)
		}).
		add("votes", func(ctx context.Context) error {
			return c.ledger.DeleteAllVotesForTarget(ctx, AnswerTarget(a.ID))
		}).
		add("creator_votes", func(ctx context.Context) error {
			return c.counters.AdjustUserVoteCount(ctx, a.CreatorID, -a.VoteCount)
		})
	if withParent {
		mw.add("question_answers", func(ctx context.Context) error {
			return c.counters.AdjustAnswerCount(ctx, a.QuestionID, -1)
		})
	}
	return mw
}

// CreateAnswer inserts a under its question and counts it there.
func (c *Cascade) CreateAnswer(ctx context.Context, a *models.Answer) error {
	_, err := c.questions.FindQuestion(ctx, a.QuestionID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Question not found",
			apperr.Field(apperr.LocationBody, "/question_id", apperr.CodeNotFound, "Question not found"))
	}
	if err != nil {
		return err
	}

	return newMultiWrite("create_answer").
		add("answer", func(ctx context.Context) error {
			return c.answers.CreateAnswer(ctx, a)
		}).
		add("question_answers", func(ctx context.Context) error {
			return c.counters.AdjustAnswerCount(ctx, a.QuestionID, 1)
		}).
		run(ctx)
}

// DeleteTopic removes t and moves its questions out of it.
func (c *Cascade) DeleteTopic(ctx context.Context, t *models.Topic) error {
	return newMultiWrite("delete_topic").
		add("topic", func(ctx context.Context) error {
			return c.topics.DeleteTopic(ctx, t.ID)
		}).
		add("questions", func(ctx context.Context) error {
			_, err := c.questions.DetachTopic(ctx, t.ID)
			return err
		}).
		run(ctx)
}
