package models

import "time"

// TargetKind names the kind of content a vote is cast on.
type TargetKind string

const (
	TargetQuestion TargetKind = "question"
	TargetAnswer   TargetKind = "answer"
)

func (k TargetKind) Valid() bool {
	return k == TargetQuestion || k == TargetAnswer
}

// Vote records that a user voted on a question or an answer.
// At most one row exists per (voter, kind, target).
type Vote struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	VoterID    int64      `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:1" json:"voter_id"`
	TargetKind TargetKind `gorm:"size:16;not null;uniqueIndex:idx_votes_voter_target,priority:2;index:idx_votes_target,priority:1" json:"target_kind"`
	TargetID   int64      `gorm:"not null;uniqueIndex:idx_votes_voter_target,priority:3;index:idx_votes_target,priority:2" json:"target_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
