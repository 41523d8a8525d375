package service

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// views joins records with the users, topics and tags they reference.
type views struct {
	users  store.UserStore
	topics store.TopicStore
	tags   store.TagStore
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func index[T any](items []T, id func(T) int64) map[int64]T {
	m := make(map[int64]T, len(items))
	for _, it := range items {
		m[id(it)] = it
	}
	return m
}

func (v views) creators(ctx context.Context, ids []int64) (map[int64]*models.UserSummary, error) {
	users, err := v.users.FindUsers(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*models.UserSummary, len(users))
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

func (v views) questions(ctx context.Context, qs []models.Question) ([]models.QuestionDetail, error) {
	var creatorIDs, topicIDs, tagIDs []int64
	for _, q := range qs {
		creatorIDs = append(creatorIDs, q.CreatorID)
		if q.TopicID != nil {
			topicIDs = append(topicIDs, *q.TopicID)
		}
		tagIDs = append(tagIDs, q.Tags...)
	}

	var (
		creators map[int64]*models.UserSummary
		topics   map[int64]models.Topic
		tags     map[int64]models.QuestionTag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		creators, err = v.creators(gctx, creatorIDs)
		return err
	})
	g.Go(func() error {
		found, err := v.topics.FindTopics(gctx, uniqueIDs(topicIDs))
		topics = index(found, func(t models.Topic) int64 { return t.ID })
		return err
	})
	g.Go(func() error {
		found, err := v.tags.FindTags(gctx, uniqueIDs(tagIDs))
		tags = index(found, func(t models.QuestionTag) int64 { return t.ID })
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.QuestionDetail, 0, len(qs))
	for _, q := range qs {
		d := models.QuestionDetail{
			ID:          q.ID,
			Title:       q.Title,
			Content:     q.Content,
			VoteCount:   q.VoteCount,
			AnswerCount: q.AnswerCount,
			Creator:     creators[q.CreatorID],
			Tags:        []models.QuestionTag{},
			CreatedAt:   q.CreatedAt,
			UpdatedAt:   q.UpdatedAt,
		}
		if q.TopicID != nil {
			if t, ok := topics[*q.TopicID]; ok {
				d.Topic = &models.TopicSummary{ID: t.ID, Name: t.Name}
			}
		}
		for _, id := range q.Tags {
			if t, ok := tags[id]; ok {
				d.Tags = append(d.Tags, t)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (v views) answers(ctx context.Context, as []models.Answer) ([]models.AnswerDetail, error) {
	ids := make([]int64, len(as))
	for i, a := range as {
		ids[i] = a.CreatorID
	}
	creators, err := v.creators(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.AnswerDetail, 0, len(as))
	for _, a := range as {
		out = append(out, models.AnswerDetail{
			ID:         a.ID,
			QuestionID: a.QuestionID,
			Content:    a.Content,
			VoteCount:  a.VoteCount,
			Creator:    creators[a.CreatorID],
			CreatedAt:  a.CreatedAt,
			UpdatedAt:  a.UpdatedAt,
		})
	}
	return out, nil
}

func (v views) topicDetails(ctx context.Context, ts []models.Topic) ([]models.TopicDetail, error) {
	ids := make([]int64, len(ts))
	for i, t := range ts {
		ids[i] = t.CreatorID
	}
	creators, err := v.creators(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.TopicDetail, 0, len(ts))
	for _, t := range ts {
		out = append(out, models.TopicDetail{
			ID:            t.ID,
			Name:          t.Name,
			Desc:          t.Desc,
			QuestionCount: t.QuestionCount,
			MemberCount:   len(t.Members),
			Creator:       creators[t.CreatorID],
			CreatedAt:     t.CreatedAt,
		})
	}
	return out, nil
}

// one unwraps the single detail built for a single record.
func one[T, D any](ctx context.Context, build func(context.Context, []T) ([]D, error), item T) (*D, error) {
	out, err := build(ctx, []T{item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}
