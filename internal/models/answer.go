package models

import "time"

type Answer struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	QuestionID int64     `gorm:"not null;index" json:"question_id"`
	Content    string    `gorm:"not null" json:"content"`
	CreatorID  int64     `gorm:"not null;index" json:"creator_id"`
	VoteCount  int64     `gorm:"not null;default:0" json:"vote_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateAnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required,gt=0"`
	Content    string `json:"content" binding:"required,min=1,max=20000"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required,min=1,max=20000"`
}

// AnswerFilter narrows answer listings. Zero values match everything.
type AnswerFilter struct {
	QuestionID int64
	CreatorID  int64
}
