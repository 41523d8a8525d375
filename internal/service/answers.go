package service

import (
	"context"
	"errors"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type AnswerService struct {
	answers store.AnswerStore
	cascade *community.Cascade
	voting  *community.Voting
	views   views
}

func NewAnswerService(s store.Store, c *community.Community) *AnswerService {
	return &AnswerService{
		answers: s.Answers(),
		cascade: c.Cascade,
		voting:  c.Voting,
		views:   views{users: s.Users(), topics: s.Topics(), tags: s.Tags()},
	}
}

func (s *AnswerService) find(ctx context.Context, id int64) (*models.Answer, error) {
	a, err := s.answers.FindAnswer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Answer not found")
	}
	return a, err
}

// owned loads an answer and checks that requesterID created it.
func (s *AnswerService) owned(ctx context.Context, id, requesterID int64) (*models.Answer, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.CreatorID != requesterID {
		return nil, apperr.Forbidden("Only the creator can change this answer")
	}
	return a, nil
}

func (s *AnswerService) Create(ctx context.Context, creatorID int64, req models.CreateAnswerRequest) (*models.AnswerDetail, error) {
	a := &models.Answer{QuestionID: req.QuestionID, Content: req.Content, CreatorID: creatorID}
	if err := s.cascade.CreateAnswer(ctx, a); err != nil {
		return nil, err
	}
	return one(ctx, s.views.answers, *a)
}

func (s *AnswerService) Update(ctx context.Context, id, requesterID int64, req models.UpdateAnswerRequest) error {
	a, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	a.Content = req.Content
	return s.answers.SaveAnswer(ctx, a)
}

func (s *AnswerService) Delete(ctx context.Context, id, requesterID int64) error {
	a, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	return s.cascade.DeleteAnswer(ctx, a)
}

func (s *AnswerService) Get(ctx context.Context, id int64) (*models.AnswerDetail, error) {
	a, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return one(ctx, s.views.answers, *a)
}

func (s *AnswerService) List(ctx context.Context, f models.AnswerFilter, page models.Page) (models.PagedData[models.AnswerDetail], error) {
	as, total, err := s.answers.ListAnswers(ctx, f, page)
	if err != nil {
		return models.PagedData[models.AnswerDetail]{}, err
	}
	details, err := s.views.answers(ctx, as)
	if err != nil {
		return models.PagedData[models.AnswerDetail]{}, err
	}
	return models.NewPagedData(details, page, total), nil
}

func (s *AnswerService) Vote(ctx context.Context, id, voterID int64) error {
	_, err := s.voting.Vote(ctx, community.AnswerTarget(id), voterID)
	return err
}

func (s *AnswerService) Unvote(ctx context.Context, id, voterID int64) error {
	return s.voting.Unvote(ctx, community.AnswerTarget(id), voterID)
}
