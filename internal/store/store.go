// Package store is the storage collaborator every protocol and service reads
// and writes through. It offers no multi-record transactions.
package store

import (
	"context"
	"errors"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Counter names one denormalized counter column.
type Counter int

const (
	QuestionVotes Counter = iota
	AnswerVotes
	QuestionAnswers
	TopicQuestions
	UserVotes
)

// Counters lists every counter in reconciliation order.
var Counters = []Counter{QuestionVotes, AnswerVotes, QuestionAnswers, TopicQuestions, UserVotes}

func (c Counter) String() string {
	switch c {
	case QuestionVotes:
		return "question_votes"
	case AnswerVotes:
		return "answer_votes"
	case QuestionAnswers:
		return "question_answers"
	case TopicQuestions:
		return "topic_questions"
	case UserVotes:
		return "user_votes"
	}
	return "unknown"
}

// Tally compares a stored counter with the value recomputed from facts.
type Tally struct {
	ID     int64
	Stored int64
	Actual int64
}

type VoteStore interface {
	FindVote(ctx context.Context, voterID int64, kind models.TargetKind, targetID int64) (*models.Vote, error)
	// InsertVote returns ErrDuplicate when the voter already voted on the target.
	InsertVote(ctx context.Context, v *models.Vote) error
	// DeleteVote reports whether a row was removed.
	DeleteVote(ctx context.Context, id int64) (bool, error)
	DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error)
	CountVotes(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error)
}

type CounterStore interface {
	// Adjust adds delta to the counter of record id, clamping at zero.
	// A missing record is not an error.
	Adjust(ctx context.Context, c Counter, id int64, delta int64) error
	// CompareAndSet writes value only while the counter still holds stored,
	// and reports whether it wrote.
	CompareAndSet(ctx context.Context, c Counter, id int64, stored, value int64) (bool, error)
	// Drift returns the records whose counter disagrees with the underlying facts.
	Drift(ctx context.Context, c Counter) ([]Tally, error)
}

type UserStore interface {
	FindUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context, ids []int64) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	// ListUsers pages through the users among ids whose name or email matches keyword.
	ListUsers(ctx context.Context, ids []int64, keyword string, page models.Page) ([]models.User, int64, error)
}

type TopicStore interface {
	FindTopic(ctx context.Context, id int64) (*models.Topic, error)
	FindTopics(ctx context.Context, ids []int64) ([]models.Topic, error)
	CreateTopic(ctx context.Context, t *models.Topic) error
	SaveTopic(ctx context.Context, t *models.Topic) error
	DeleteTopic(ctx context.Context, id int64) error
	ListTopics(ctx context.Context, f TopicFilter, page models.Page) ([]models.Topic, int64, error)
	// AddMember appends userID unless already present and reports whether it did.
	AddMember(ctx context.Context, topicID, userID int64) (bool, error)
	RemoveMembers(ctx context.Context, topicID int64, userIDs []int64) error
}

// TopicFilter narrows topic listings. Zero values match everything.
type TopicFilter struct {
	CreatorID int64
	MemberID  int64
	Keyword   string
}

type QuestionStore interface {
	FindQuestion(ctx context.Context, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	SaveQuestion(ctx context.Context, q *models.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context, f models.QuestionFilter, page models.Page) ([]models.Question, int64, error)
	// DetachTopic clears the topic of every question inside topicID.
	DetachTopic(ctx context.Context, topicID int64) (int64, error)
}

type AnswerStore interface {
	FindAnswer(ctx context.Context, id int64) (*models.Answer, error)
	CreateAnswer(ctx context.Context, a *models.Answer) error
	SaveAnswer(ctx context.Context, a *models.Answer) error
	DeleteAnswer(ctx context.Context, id int64) error
	ListAnswers(ctx context.Context, f models.AnswerFilter, page models.Page) ([]models.Answer, int64, error)
}

type TagStore interface {
	FindTag(ctx context.Context, id int64) (*models.QuestionTag, error)
	FindTags(ctx context.Context, ids []int64) ([]models.QuestionTag, error)
	CreateTag(ctx context.Context, t *models.QuestionTag) error
	ListTags(ctx context.Context, keyword string, page models.Page) ([]models.QuestionTag, int64, error)
}

// Store aggregates every collection.
type Store interface {
	Votes() VoteStore
	Counters() CounterStore
	Users() UserStore
	Topics() TopicStore
	Questions() QuestionStore
	Answers() AnswerStore
	Tags() TagStore
}
