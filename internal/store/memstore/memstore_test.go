package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

func TestInsertVote_Unique(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InsertVote(ctx, &models.Vote{VoterID: 1, TargetKind: models.TargetQuestion, TargetID: 7}))
	err := s.InsertVote(ctx, &models.Vote{VoterID: 1, TargetKind: models.TargetQuestion, TargetID: 7})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	// same id, other kind is a different target
	require.NoError(t, s.InsertVote(ctx, &models.Vote{VoterID: 1, TargetKind: models.TargetAnswer, TargetID: 7}))

	n, err := s.CountVotes(ctx, models.TargetQuestion, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	s := New()
	q := &models.Question{Title: "t", Content: "c", CreatorID: 1}
	require.NoError(t, s.CreateQuestion(ctx, q))

	require.NoError(t, s.Adjust(ctx, store.QuestionVotes, q.ID, 2))
	require.NoError(t, s.Adjust(ctx, store.QuestionVotes, q.ID, -5))

	got, err := s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Zero(t, got.VoteCount)

	// missing record is not an error
	assert.NoError(t, s.Adjust(ctx, store.QuestionVotes, 999, 1))
}

func TestSaveQuestion_KeepsCounters(t *testing.T) {
	ctx := context.Background()
	s := New()
	q := &models.Question{Title: "t", Content: "c", CreatorID: 1}
	require.NoError(t, s.CreateQuestion(ctx, q))
	require.NoError(t, s.Adjust(ctx, store.QuestionVotes, q.ID, 3))

	stale := *q
	stale.Title = "edited"
	require.NoError(t, s.SaveQuestion(ctx, &stale))

	got, err := s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.EqualValues(t, 3, got.VoteCount)
}

func TestSaveQuestion_KeepsOwnerAndTopic(t *testing.T) {
	ctx := context.Background()
	s := New()
	topic := &models.Topic{Name: "go", CreatorID: 1}
	require.NoError(t, s.CreateTopic(ctx, topic))
	q := &models.Question{Title: "t", Content: "c", CreatorID: 1, TopicID: &topic.ID}
	require.NoError(t, s.CreateQuestion(ctx, q))

	stale := *q
	_, err := s.DetachTopic(ctx, topic.ID)
	require.NoError(t, err)
	stale.Title = "edited"
	stale.CreatorID = 2
	require.NoError(t, s.SaveQuestion(ctx, &stale))

	got, err := s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
	assert.Nil(t, got.TopicID)
	assert.EqualValues(t, 1, got.CreatorID)
}

func TestCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	q := &models.Question{Title: "t", Content: "c", CreatorID: 1}
	require.NoError(t, s.CreateQuestion(ctx, q))

	written, err := s.CompareAndSet(ctx, store.QuestionVotes, q.ID, 0, 5)
	require.NoError(t, err)
	assert.True(t, written)

	// the counter moved since 0 was read
	written, err = s.CompareAndSet(ctx, store.QuestionVotes, q.ID, 0, 1)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := s.FindQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, got.VoteCount)

	written, err = s.CompareAndSet(ctx, store.QuestionVotes, 999, 0, 1)
	require.NoError(t, err)
	assert.False(t, written, "missing record")
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	s := New()
	topic := &models.Topic{Name: "go", CreatorID: 1}
	require.NoError(t, s.CreateTopic(ctx, topic))

	added, err := s.AddMember(ctx, topic.ID, 2)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddMember(ctx, topic.ID, 2)
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, s.RemoveMembers(ctx, topic.ID, []int64{2, 42}))
	got, err := s.FindTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Members)
}

func TestListQuestions_SortAndWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, title := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, s.CreateQuestion(ctx, &models.Question{Title: title, Content: "x", CreatorID: 1}))
	}

	page := models.Page{Limit: 2, Offset: 0, Sort: []models.SortRule{{Column: "title", Desc: true}}}
	items, total, err := s.ListQuestions(ctx, models.QuestionFilter{}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "gamma", items[0].Title)
	assert.Equal(t, "beta", items[1].Title)

	items, total, err = s.ListQuestions(ctx, models.QuestionFilter{Keyword: "ALP"}, models.DefaultPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "alpha", items[0].Title)
}

func TestFail(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.Fail(OpInsertVote, boom)

	err := s.InsertVote(ctx, &models.Vote{VoterID: 1, TargetKind: models.TargetQuestion, TargetID: 1})
	assert.ErrorIs(t, err, boom)

	s.Heal()
	assert.NoError(t, s.InsertVote(ctx, &models.Vote{VoterID: 1, TargetKind: models.TargetQuestion, TargetID: 1}))
}

func TestDrift_UserVotes(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &models.User{Email: "a@example.com"}
	require.NoError(t, s.CreateUser(ctx, u))
	q := &models.Question{Title: "t", Content: "c", CreatorID: u.ID}
	require.NoError(t, s.CreateQuestion(ctx, q))
	require.NoError(t, s.InsertVote(ctx, &models.Vote{VoterID: 99, TargetKind: models.TargetQuestion, TargetID: q.ID}))

	drift, err := s.Drift(ctx, store.UserVotes)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, store.Tally{ID: u.ID, Stored: 0, Actual: 1}, drift[0])
}
