package community

import (
	"context"
	"errors"
	"fmt"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Target identifies a votable record.
type Target struct {
	Kind models.TargetKind
	ID   int64
}

func QuestionTarget(id int64) Target { return Target{Kind: models.TargetQuestion, ID: id} }
func AnswerTarget(id int64) Target   { return Target{Kind: models.TargetAnswer, ID: id} }

func (t Target) String() string { return fmt.Sprintf("%s/%d", t.Kind, t.ID) }

// Votable is the part of a target the voting protocol needs.
type Votable struct {
	Target    Target
	CreatorID int64
	VoteCount int64
}

// TargetResolver loads votable records by kind.
type TargetResolver struct {
	questions store.QuestionStore
	answers   store.AnswerStore
}

func NewTargetResolver(questions store.QuestionStore, answers store.AnswerStore) *TargetResolver {
	return &TargetResolver{questions: questions, answers: answers}
}

// Resolve returns the target or a NotFound error.
func (r *TargetResolver) Resolve(ctx context.Context, t Target) (*Votable, error) {
	switch t.Kind {
	case models.TargetQuestion:
		q, err := r.questions.FindQuestion(ctx, t.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Question not found")
		}
		if err != nil {
			return nil, err
		}
		return &Votable{Target: t, CreatorID: q.CreatorID, VoteCount: q.VoteCount}, nil
	case models.TargetAnswer:
		a, err := r.answers.FindAnswer(ctx, t.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Answer not found")
		}
		if err != nil {
			return nil, err
		}
		return &Votable{Target: t, CreatorID: a.CreatorID, VoteCount: a.VoteCount}, nil
	}
	return nil, apperr.NotFound("Unknown vote target")
}
