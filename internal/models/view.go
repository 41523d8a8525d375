package models

import "time"

type UserSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TopicSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// QuestionDetail is a question joined with its creator, topic and tags.
type QuestionDetail struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	VoteCount   int64         `json:"vote_count"`
	AnswerCount int64         `json:"answer_count"`
	Creator     *UserSummary  `json:"creator"`
	Topic       *TopicSummary `json:"topic"`
	Tags        []QuestionTag `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type AnswerDetail struct {
	ID         int64        `json:"id"`
	QuestionID int64        `json:"question_id"`
	Content    string       `json:"content"`
	VoteCount  int64        `json:"vote_count"`
	Creator    *UserSummary `json:"creator"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

type TopicDetail struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Desc          string       `json:"desc"`
	QuestionCount int64        `json:"question_count"`
	MemberCount   int          `json:"member_count"`
	Creator       *UserSummary `json:"creator"`
	CreatedAt     time.Time    `json:"created_at"`
}
