package service

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type QuestionService struct {
	questions store.QuestionStore
	topics    store.TopicStore
	tags      store.TagStore
	cascade   *community.Cascade
	voting    *community.Voting
	views     views
}

func NewQuestionService(s store.Store, c *community.Community) *QuestionService {
	return &QuestionService{
		questions: s.Questions(),
		topics:    s.Topics(),
		tags:      s.Tags(),
		cascade:   c.Cascade,
		voting:    c.Voting,
		views:     views{users: s.Users(), topics: s.Topics(), tags: s.Tags()},
	}
}

func (s *QuestionService) find(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.questions.FindQuestion(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Question not found")
	}
	return q, err
}

// existingTags keeps the ids of tags that exist, in request order.
func (s *QuestionService) existingTags(ctx context.Context, ids []int64) (pq.Int64Array, error) {
	out := pq.Int64Array{}
	if len(ids) == 0 {
		return out, nil
	}
	found, err := s.tags.FindTags(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	known := index(found, func(t models.QuestionTag) int64 { return t.ID })
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// Create posts a question, inside topicID when it is not nil. Callers check
// topic membership beforehand.
func (s *QuestionService) Create(ctx context.Context, creatorID int64, topicID *int64, req models.CreateQuestionRequest) (*models.QuestionDetail, error) {
	tags, err := s.existingTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	q := &models.Question{
		TopicID:   topicID,
		Title:     req.Title,
		Content:   req.Content,
		CreatorID: creatorID,
		Tags:      tags,
	}
	if err := s.cascade.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return one(ctx, s.views.questions, *q)
}

// Update changes title, content and tags. Only the creator may edit.
func (s *QuestionService) Update(ctx context.Context, id, requesterID int64, req models.UpdateQuestionRequest) error {
	q, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if q.CreatorID != requesterID {
		return apperr.Forbidden("Only the creator can edit this question")
	}
	if req.Title != nil {
		q.Title = *req.Title
	}
	if req.Content != nil {
		q.Content = *req.Content
	}
	if len(req.Tags) > 0 {
		tags, err := s.existingTags(ctx, req.Tags)
		if err != nil {
			return err
		}
		if len(tags) > 0 {
			q.Tags = tags
		}
	}
	return s.questions.SaveQuestion(ctx, q)
}

// Delete removes a question. Its creator and the creator of its topic may delete it.
func (s *QuestionService) Delete(ctx context.Context, id, requesterID int64) error {
	q, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if q.CreatorID != requesterID {
		if q.TopicID == nil {
			return apperr.Forbidden("Only the creator can delete this question")
		}
		t, err := s.topics.FindTopic(ctx, *q.TopicID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && t.CreatorID != requesterID) {
			return apperr.Forbidden("Only the creator can delete this question")
		}
		if err != nil {
			return err
		}
	}
	return s.cascade.DeleteQuestion(ctx, q)
}

func (s *QuestionService) Get(ctx context.Context, id int64) (*models.QuestionDetail, error) {
	q, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return one(ctx, s.views.questions, *q)
}

func (s *QuestionService) List(ctx context.Context, f models.QuestionFilter, page models.Page) (models.PagedData[models.QuestionDetail], error) {
	qs, total, err := s.questions.ListQuestions(ctx, f, page)
	if err != nil {
		return models.PagedData[models.QuestionDetail]{}, err
	}
	details, err := s.views.questions(ctx, qs)
	if err != nil {
		return models.PagedData[models.QuestionDetail]{}, err
	}
	return models.NewPagedData(details, page, total), nil
}

func (s *QuestionService) Vote(ctx context.Context, id, voterID int64) error {
	_, err := s.voting.Vote(ctx, community.QuestionTarget(id), voterID)
	return err
}

func (s *QuestionService) Unvote(ctx context.Context, id, voterID int64) error {
	return s.voting.Unvote(ctx, community.QuestionTarget(id), voterID)
}
