// Package service implements the account, topic, question, answer and tag
// operations on top of the store and the community protocols.
package service

import (
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/community"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Services bundles every service built on one store.
type Services struct {
	Tokens    *TokenIssuer
	Users     *UserService
	Auth      *AuthService
	Topics    *TopicService
	Questions *QuestionService
	Answers   *AnswerService
	Tags      *TagService
}

func New(s store.Store, c *community.Community, notifier community.Notifier, tokens *TokenIssuer, codeLifetime time.Duration) *Services {
	questions := NewQuestionService(s, c)
	return &Services{
		Tokens:    tokens,
		Users:     NewUserService(s.Users(), notifier, codeLifetime),
		Auth:      NewAuthService(s.Users(), tokens),
		Topics:    NewTopicService(s, c, questions),
		Questions: questions,
		Answers:   NewAnswerService(s, c),
		Tags:      NewTagService(s.Tags()),
	}
}
