package models

import (
	"time"

	"github.com/lib/pq"
)

type Question struct {
	ID          int64         `gorm:"primaryKey" json:"id"`
	TopicID     *int64        `gorm:"index" json:"topic_id"`
	Title       string        `gorm:"not null" json:"title"`
	Content     string        `gorm:"not null" json:"content"`
	CreatorID   int64         `gorm:"not null;index" json:"creator_id"`
	Tags        pq.Int64Array `gorm:"type:bigint[];not null;default:'{}'" json:"tags"`
	VoteCount   int64         `gorm:"not null;default:0" json:"vote_count"`
	AnswerCount int64         `gorm:"not null;default:0" json:"answer_count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title   string  `json:"title" binding:"required,min=1,max=300"`
	Content string  `json:"content" binding:"required,min=1,max=20000"`
	Tags    []int64 `json:"tags" binding:"max=10,dive,gt=0"`
}

type UpdateQuestionRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=300"`
	Content *string `json:"content" binding:"omitempty,min=1,max=20000"`
	Tags    []int64 `json:"tags" binding:"omitempty,max=10,dive,gt=0"`
}

// QuestionFilter narrows question listings. Zero values match everything.
type QuestionFilter struct {
	CreatorID int64
	TopicID   int64
	Keyword   string
}

type QuestionTag struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}
