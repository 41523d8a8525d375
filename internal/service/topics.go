package service

import (
	"context"
	"errors"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type TopicService struct {
	topics     store.TopicStore
	users      store.UserStore
	cascade    *community.Cascade
	membership *community.Membership
	questions  *QuestionService
	views      views
}

func NewTopicService(s store.Store, c *community.Community, questions *QuestionService) *TopicService {
	return &TopicService{
		topics:     s.Topics(),
		users:      s.Users(),
		cascade:    c.Cascade,
		membership: c.Membership,
		questions:  questions,
		views:      views{users: s.Users(), topics: s.Topics(), tags: s.Tags()},
	}
}

func (s *TopicService) find(ctx context.Context, id int64) (*models.Topic, error) {
	t, err := s.topics.FindTopic(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Topic not found")
	}
	return t, err
}

func (s *TopicService) owned(ctx context.Context, id, requesterID int64) (*models.Topic, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.CreatorID != requesterID {
		return nil, apperr.Forbidden("Only the topic creator can change it")
	}
	return t, nil
}

// visible loads a topic that requesterID created or belongs to.
func (s *TopicService) visible(ctx context.Context, id, requesterID int64) (*models.Topic, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.CanSee(requesterID) {
		return nil, apperr.Forbidden("Only members can access this topic")
	}
	return t, nil
}

func (s *TopicService) Create(ctx context.Context, creatorID int64, req models.CreateTopicRequest) (*models.TopicDetail, error) {
	t := &models.Topic{Name: req.Name, Desc: req.Desc, CreatorID: creatorID}
	if err := s.topics.CreateTopic(ctx, t); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("This topic already exists")
		}
		return nil, err
	}
	return one(ctx, s.views.topicDetails, *t)
}

func (s *TopicService) Update(ctx context.Context, id, requesterID int64, req models.UpdateTopicRequest) error {
	t, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Desc != nil {
		t.Desc = *req.Desc
	}
	if err := s.topics.SaveTopic(ctx, t); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Conflict("This topic already exists")
		}
		return err
	}
	return nil
}

func (s *TopicService) Delete(ctx context.Context, id, requesterID int64) error {
	t, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	return s.cascade.DeleteTopic(ctx, t)
}

func (s *TopicService) Get(ctx context.Context, id int64) (*models.TopicDetail, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return one(ctx, s.views.topicDetails, *t)
}

func (s *TopicService) list(ctx context.Context, f store.TopicFilter, page models.Page) (models.PagedData[models.TopicDetail], error) {
	ts, total, err := s.topics.ListTopics(ctx, f, page)
	if err != nil {
		return models.PagedData[models.TopicDetail]{}, err
	}
	details, err := s.views.topicDetails(ctx, ts)
	if err != nil {
		return models.PagedData[models.TopicDetail]{}, err
	}
	return models.NewPagedData(details, page, total), nil
}

// Mine lists the topics userID created.
func (s *TopicService) Mine(ctx context.Context, userID int64, keyword string, page models.Page) (models.PagedData[models.TopicDetail], error) {
	return s.list(ctx, store.TopicFilter{CreatorID: userID, Keyword: keyword}, page)
}

// Joined lists the topics userID is a member of.
func (s *TopicService) Joined(ctx context.Context, userID int64, keyword string, page models.Page) (models.PagedData[models.TopicDetail], error) {
	return s.list(ctx, store.TopicFilter{MemberID: userID, Keyword: keyword}, page)
}

// Members lists the members of a topic to its creator and members.
func (s *TopicService) Members(ctx context.Context, id, requesterID int64, keyword string, page models.Page) (models.PagedData[models.UserSummary], error) {
	t, err := s.visible(ctx, id, requesterID)
	if err != nil {
		return models.PagedData[models.UserSummary]{}, err
	}
	users, total, err := s.users.ListUsers(ctx, t.Members, keyword, page)
	if err != nil {
		return models.PagedData[models.UserSummary]{}, err
	}
	out := make([]models.UserSummary, len(users))
	for i := range users {
		out[i] = *users[i].Summary()
	}
	return models.NewPagedData(out, page, total), nil
}

func (s *TopicService) AddMember(ctx context.Context, id, requesterID int64, email string) error {
	_, err := s.membership.AddMember(ctx, id, requesterID, normalizeEmail(email))
	return err
}

func (s *TopicService) RemoveMembers(ctx context.Context, id, requesterID int64, userIDs []int64) error {
	return s.membership.RemoveMembers(ctx, id, requesterID, userIDs)
}

// CreateQuestion posts a question inside a topic the creator can see.
func (s *TopicService) CreateQuestion(ctx context.Context, id, creatorID int64, req models.CreateQuestionRequest) (*models.QuestionDetail, error) {
	t, err := s.visible(ctx, id, creatorID)
	if err != nil {
		return nil, err
	}
	return s.questions.Create(ctx, creatorID, &t.ID, req)
}
