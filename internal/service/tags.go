package service

import (
	"context"
	"errors"
	"strings"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type TagService struct {
	tags store.TagStore
}

func NewTagService(tags store.TagStore) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) Get(ctx context.Context, id int64) (*models.QuestionTag, error) {
	t, err := s.tags.FindTag(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Question tag not found")
	}
	return t, err
}

func (s *TagService) List(ctx context.Context, keyword string, page models.Page) (models.PagedData[models.QuestionTag], error) {
	tags, total, err := s.tags.ListTags(ctx, keyword, page)
	if err != nil {
		return models.PagedData[models.QuestionTag]{}, err
	}
	return models.NewPagedData(tags, page, total), nil
}

// Create adds a tag; an existing name is a Conflict.
func (s *TagService) Create(ctx context.Context, name string) (*models.QuestionTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(apperr.Field(apperr.LocationBody, "/name", apperr.CodeInvalidParameter, "Name is required"))
	}
	t := &models.QuestionTag{Name: name}
	if err := s.tags.CreateTag(ctx, t); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("This tag already exists")
		}
		return nil, err
	}
	return t, nil
}
