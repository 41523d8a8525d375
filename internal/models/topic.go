package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type Topic struct {
	ID            int64         `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"uniqueIndex;not null" json:"name"`
	Desc          string        `gorm:"column:description" json:"desc"`
	CreatorID     int64         `gorm:"not null;index" json:"creator_id"`
	Members       pq.Int64Array `gorm:"type:bigint[];not null;default:'{}'" json:"members"`
	QuestionCount int64         `gorm:"not null;default:0" json:"question_count"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasMember reports whether userID is in the member set.
func (t *Topic) HasMember(userID int64) bool {
	return slices.Contains(t.Members, userID)
}

// CanSee reports whether userID may read the topic's members and post inside it.
func (t *Topic) CanSee(userID int64) bool {
	return t.CreatorID == userID || t.HasMember(userID)
}

type CreateTopicRequest struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
	Desc string `json:"desc" binding:"max=2000"`
}

type UpdateTopicRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=128"`
	Desc *string `json:"desc" binding:"omitempty,max=2000"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type RemoveMembersRequest struct {
	Users []int64 `json:"users" binding:"required,min=1,dive,gt=0"`
}
