package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

func newGormStore(t *testing.T) *store.GormStore {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker; skipped with -short")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("qaforum"),
		tcpostgres.WithUsername("qaforum"),
		tcpostgres.WithPassword("qaforum"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return store.NewGormStore(db)
}

func TestGormStore(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()

	owner := &models.User{Email: "owner@example.com", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, owner))
	member := &models.User{Email: "member@example.com", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, member))

	t.Run("duplicate email", func(t *testing.T) {
		err := s.CreateUser(ctx, &models.User{Email: "owner@example.com"})
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	q := &models.Question{Title: "Why?", Content: "Because", CreatorID: owner.ID}
	require.NoError(t, s.CreateQuestion(ctx, q))

	t.Run("votes are unique per voter and target", func(t *testing.T) {
		v := &models.Vote{VoterID: member.ID, TargetKind: models.TargetQuestion, TargetID: q.ID}
		require.NoError(t, s.InsertVote(ctx, v))

		err := s.InsertVote(ctx, &models.Vote{VoterID: member.ID, TargetKind: models.TargetQuestion, TargetID: q.ID})
		assert.ErrorIs(t, err, store.ErrDuplicate)

		found, err := s.FindVote(ctx, member.ID, models.TargetQuestion, q.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, found.ID)

		deleted, err := s.DeleteVote(ctx, v.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = s.DeleteVote(ctx, v.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("concurrent adjusts do not lose updates", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 25 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Adjust(ctx, store.QuestionVotes, q.ID, 1))
			}()
		}
		wg.Wait()

		got, err := s.FindQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 25, got.VoteCount)

		require.NoError(t, s.Adjust(ctx, store.QuestionVotes, q.ID, -100))
		got, err = s.FindQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.Zero(t, got.VoteCount)

		assert.NoError(t, s.Adjust(ctx, store.QuestionVotes, 999999, 1), "missing record is a no-op")
	})

	t.Run("drift", func(t *testing.T) {
		written, err := s.CompareAndSet(ctx, store.QuestionVotes, q.ID, 0, 7)
		require.NoError(t, err)
		require.True(t, written)

		drift, err := s.Drift(ctx, store.QuestionVotes)
		require.NoError(t, err)
		require.Len(t, drift, 1)
		assert.Equal(t, store.Tally{ID: q.ID, Stored: 7, Actual: 0}, drift[0])

		// a stale expected value leaves the counter alone
		written, err = s.CompareAndSet(ctx, store.QuestionVotes, q.ID, 0, 0)
		require.NoError(t, err)
		assert.False(t, written)
		got, err := s.FindQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 7, got.VoteCount)
	})

	t.Run("membership", func(t *testing.T) {
		topic := &models.Topic{Name: "golang", CreatorID: owner.ID}
		require.NoError(t, s.CreateTopic(ctx, topic))

		added, err := s.AddMember(ctx, topic.ID, member.ID)
		require.NoError(t, err)
		assert.True(t, added)
		added, err = s.AddMember(ctx, topic.ID, member.ID)
		require.NoError(t, err)
		assert.False(t, added)

		joined, total, err := s.ListTopics(ctx, store.TopicFilter{MemberID: member.ID}, models.DefaultPage())
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, joined, 1)
		assert.Equal(t, topic.ID, joined[0].ID)

		require.NoError(t, s.RemoveMembers(ctx, topic.ID, []int64{member.ID, 12345}))
		got, err := s.FindTopic(ctx, topic.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Members)
	})

	t.Run("save keeps counters", func(t *testing.T) {
		current, err := s.FindQuestion(ctx, q.ID)
		require.NoError(t, err)
		written, err := s.CompareAndSet(ctx, store.QuestionAnswers, q.ID, current.AnswerCount, 3)
		require.NoError(t, err)
		require.True(t, written)
		stale := *q
		stale.Title = "Why not?"
		require.NoError(t, s.SaveQuestion(ctx, &stale))

		got, err := s.FindQuestion(ctx, q.ID)
		require.NoError(t, err)
		assert.Equal(t, "Why not?", got.Title)
		assert.EqualValues(t, 3, got.AnswerCount)
	})

	t.Run("save keeps owner and topic", func(t *testing.T) {
		topic := &models.Topic{Name: "detached", CreatorID: owner.ID}
		require.NoError(t, s.CreateTopic(ctx, topic))
		inTopic := &models.Question{Title: "In topic", Content: "-", CreatorID: owner.ID, TopicID: &topic.ID}
		require.NoError(t, s.CreateQuestion(ctx, inTopic))

		stale := *inTopic
		_, err := s.DetachTopic(ctx, topic.ID)
		require.NoError(t, err)
		stale.Title = "Edited"
		stale.CreatorID = member.ID
		require.NoError(t, s.SaveQuestion(ctx, &stale))

		got, err := s.FindQuestion(ctx, inTopic.ID)
		require.NoError(t, err)
		assert.Equal(t, "Edited", got.Title)
		assert.Nil(t, got.TopicID)
		assert.Equal(t, owner.ID, got.CreatorID)
	})

	t.Run("keyword search and paging", func(t *testing.T) {
		for _, title := range []string{"gorm joins", "gin routing", "gorm hooks"} {
			require.NoError(t, s.CreateQuestion(ctx, &models.Question{Title: title, Content: "-", CreatorID: member.ID}))
		}
		page := models.Page{Limit: 1, Sort: []models.SortRule{{Column: "id", Desc: true}}}

		items, total, err := s.ListQuestions(ctx, models.QuestionFilter{Keyword: "GORM"}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		require.Len(t, items, 1)
		assert.Equal(t, "gorm hooks", items[0].Title)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.FindAnswer(ctx, 424242)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
