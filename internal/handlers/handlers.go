package handlers

import (
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Topic    *TopicHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Tag      *TagHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *service.Services) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		User:     NewUserHandler(svc.Users),
		Topic:    NewTopicHandler(svc.Topics),
		Question: NewQuestionHandler(svc.Questions),
		Answer:   NewAnswerHandler(svc.Answers),
		Tag:      NewTagHandler(svc.Tags),
	}
}
