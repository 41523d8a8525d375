package community

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/notify"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/store/memstore"
)

// =============================================================================
// Test Setup
// =============================================================================

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *fakeNotifier) Enqueue(msg notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return true
}

func (n *fakeNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

type fixture struct {
	ctx   context.Context
	store *memstore.Store
	c     *Community
	notes *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	notes := &fakeNotifier{}
	c := New(s, notes)
	c.Reconciler = NewReconciler(s, time.Millisecond)
	return &fixture{ctx: context.Background(), store: s, c: c, notes: notes}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "Test", IsActive: true}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) topic(t *testing.T, creatorID int64, name string) *models.Topic {
	t.Helper()
	topic := &models.Topic{Name: name, CreatorID: creatorID}
	require.NoError(t, f.store.CreateTopic(f.ctx, topic))
	return topic
}

func (f *fixture) question(t *testing.T, creatorID int64, topicID *int64) *models.Question {
	t.Helper()
	q := &models.Question{Title: "How?", Content: "Details", CreatorID: creatorID, TopicID: topicID}
	require.NoError(t, f.c.Cascade.CreateQuestion(f.ctx, q))
	return q
}

func (f *fixture) answer(t *testing.T, questionID, creatorID int64) *models.Answer {
	t.Helper()
	a := &models.Answer{QuestionID: questionID, Content: "Like this", CreatorID: creatorID}
	require.NoError(t, f.c.Cascade.CreateAnswer(f.ctx, a))
	return a
}

func (f *fixture) reloadQuestion(t *testing.T, id int64) *models.Question {
	t.Helper()
	q, err := f.store.FindQuestion(f.ctx, id)
	require.NoError(t, err)
	return q
}

func (f *fixture) reloadUser(t *testing.T, id int64) *models.User {
	t.Helper()
	u, err := f.store.FindUser(f.ctx, id)
	require.NoError(t, err)
	return u
}

func (f *fixture) reloadTopic(t *testing.T, id int64) *models.Topic {
	t.Helper()
	topic, err := f.store.FindTopic(f.ctx, id)
	require.NoError(t, err)
	return topic
}

func (f *fixture) voteCount(t *testing.T, target Target) int64 {
	t.Helper()
	n, err := f.store.CountVotes(f.ctx, target.Kind, target.ID)
	require.NoError(t, err)
	return n
}

// =============================================================================
// Voting
// =============================================================================

func TestVote_SecondVoteConflicts(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)
	target := QuestionTarget(q.ID)

	_, err := f.c.Voting.Vote(f.ctx, target, voter.ID)
	require.NoError(t, err)

	_, err = f.c.Voting.Vote(f.ctx, target, voter.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).VoteCount)
	assert.EqualValues(t, 1, f.reloadUser(t, creator.ID).VoteCount)
	assert.EqualValues(t, 1, f.voteCount(t, target))
}

func TestVoteUnvote_RoundTrip(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)
	a := f.answer(t, q.ID, creator.ID)

	for _, target := range []Target{QuestionTarget(q.ID), AnswerTarget(a.ID)} {
		t.Run(string(target.Kind), func(t *testing.T) {
			before := f.reloadUser(t, creator.ID).VoteCount

			_, err := f.c.Voting.Vote(f.ctx, target, voter.ID)
			require.NoError(t, err)
			assert.Equal(t, before+1, f.reloadUser(t, creator.ID).VoteCount)

			require.NoError(t, f.c.Voting.Unvote(f.ctx, target, voter.ID))

			assert.Equal(t, before, f.reloadUser(t, creator.ID).VoteCount)
			assert.Zero(t, f.voteCount(t, target))
		})
	}
	assert.Zero(t, f.reloadQuestion(t, q.ID).VoteCount)
	got, err := f.store.FindAnswer(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.VoteCount)
}

func TestUnvote_WithoutVote(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)
	other := f.user(t, "other@example.com")
	_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), other.ID)
	require.NoError(t, err)

	err = f.c.Voting.Unvote(f.ctx, QuestionTarget(q.ID), creator.ID)

	require.Error(t, err)
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
	assert.Equal(t, "You have not voted", e.Message)
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).VoteCount)
}

func TestVote_MissingTarget(t *testing.T) {
	f := newFixture(t)
	voter := f.user(t, "voter@example.com")

	_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(404), voter.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = f.c.Voting.Unvote(f.ctx, AnswerTarget(404), voter.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// barrierVotes holds every FindVote until n callers have looked, so that
// concurrent votes all pass the existence check before any of them inserts.
type barrierVotes struct {
	store.VoteStore
	arrived *sync.WaitGroup
}

func (b barrierVotes) FindVote(ctx context.Context, voterID int64, kind models.TargetKind, targetID int64) (*models.Vote, error) {
	v, err := b.VoteStore.FindVote(ctx, voterID, kind, targetID)
	b.arrived.Done()
	b.arrived.Wait()
	return v, err
}

func TestVote_ConcurrentDoubleVoteCountsOnce(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)

	const callers = 4
	var arrived sync.WaitGroup
	arrived.Add(callers)
	voting := NewVoting(
		NewLedger(barrierVotes{VoteStore: f.store, arrived: &arrived}),
		NewCounters(f.store),
		NewTargetResolver(f.store, f.store),
	)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = voting.Vote(f.ctx, QuestionTarget(q.ID), voter.ID)
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, conflicts)
	assert.EqualValues(t, 1, f.voteCount(t, QuestionTarget(q.ID)))
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).VoteCount)
	assert.EqualValues(t, 1, f.reloadUser(t, creator.ID).VoteCount)
}

func TestUnvote_ConcurrentDoubleUnvoteCountsOnce(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)
	_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), voter.ID)
	require.NoError(t, err)

	const callers = 4
	var arrived sync.WaitGroup
	arrived.Add(callers)
	voting := NewVoting(
		NewLedger(barrierVotes{VoteStore: f.store, arrived: &arrived}),
		NewCounters(f.store),
		NewTargetResolver(f.store, f.store),
	)

	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = voting.Unvote(f.ctx, QuestionTarget(q.ID), voter.ID)
		}()
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindNotFound):
			notFound++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, notFound)
	assert.Zero(t, f.voteCount(t, QuestionTarget(q.ID)))
	assert.Zero(t, f.reloadQuestion(t, q.ID).VoteCount)
	assert.Zero(t, f.reloadUser(t, creator.ID).VoteCount)
}

func TestVote_ConcurrentVotersAllCounted(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)

	const voters = 20
	var wg sync.WaitGroup
	for i := range voters {
		u := f.user(t, fmt.Sprintf("voter%d@example.com", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), u.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, voters, f.reloadQuestion(t, q.ID).VoteCount)
	assert.EqualValues(t, voters, f.reloadUser(t, creator.ID).VoteCount)
}

func TestVote_PartialFailureSurfacesDrift(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)
	boom := errors.New("counter store unavailable")
	f.store.Fail(memstore.OpAdjust, boom)

	vote, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), voter.ID)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var pw *PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, "vote", pw.Op)
	assert.Len(t, pw.Failed, 2)
	require.NotNil(t, vote, "the ledger write stays applied")

	// the vote exists but no counter moved
	assert.EqualValues(t, 1, f.voteCount(t, QuestionTarget(q.ID)))
	assert.Zero(t, f.reloadQuestion(t, q.ID).VoteCount)

	f.store.Heal()
	report, err := f.c.Reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report[store.QuestionVotes])
	assert.Equal(t, 1, report[store.UserVotes])
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).VoteCount)
	assert.EqualValues(t, 1, f.reloadUser(t, creator.ID).VoteCount)
}

// =============================================================================
// Reconciliation
// =============================================================================

// hookedVotes runs afterInsert once a vote row is written and before the
// caller moves on to the counters.
type hookedVotes struct {
	store.VoteStore
	afterInsert func()
}

func (h hookedVotes) InsertVote(ctx context.Context, v *models.Vote) error {
	if err := h.VoteStore.InsertVote(ctx, v); err != nil {
		return err
	}
	h.afterInsert()
	return nil
}

// scanCounter closes firstScan once every counter has been read once.
type scanCounter struct {
	store.CounterStore
	reads     atomic.Int32
	firstScan chan struct{}
}

func (s *scanCounter) Drift(ctx context.Context, c store.Counter) ([]store.Tally, error) {
	out, err := s.CounterStore.Drift(ctx, c)
	if s.reads.Add(1) == int32(len(store.Counters)) {
		close(s.firstScan)
	}
	return out, err
}

type hookedStore struct {
	*memstore.Store
	votes    store.VoteStore
	counters store.CounterStore
}

func (s hookedStore) Votes() store.VoteStore       { return s.votes }
func (s hookedStore) Counters() store.CounterStore { return s.counters }

func TestReconcile_DuringVoteKeepsCounters(t *testing.T) {
	mem := memstore.New()
	counters := &scanCounter{CounterStore: mem, firstScan: make(chan struct{})}
	reconciler := NewReconciler(counters, 100*time.Millisecond)

	type result struct {
		report Report
		err    error
	}
	done := make(chan result, 1)
	votes := hookedVotes{VoteStore: mem, afterInsert: func() {
		go func() {
			report, err := reconciler.Run(context.Background())
			done <- result{report, err}
		}()
		<-counters.firstScan
	}}

	notes := &fakeNotifier{}
	f := &fixture{
		ctx:   context.Background(),
		store: mem,
		c:     New(hookedStore{Store: mem, votes: votes, counters: counters}, notes),
		notes: notes,
	}
	creator := f.user(t, "creator@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, creator.ID, nil)

	_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), voter.ID)
	require.NoError(t, err)

	res := <-done
	require.NoError(t, res.err)
	assert.Zero(t, res.report.Total(), "drift of an in-flight vote is not repaired")
	assert.EqualValues(t, 1, f.voteCount(t, QuestionTarget(q.ID)))
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).VoteCount)
	assert.EqualValues(t, 1, f.reloadUser(t, creator.ID).VoteCount)
}

func TestReconcile_RepairsStableDrift(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)
	written, err := f.store.CompareAndSet(f.ctx, store.QuestionVotes, q.ID, 0, 4)
	require.NoError(t, err)
	require.True(t, written)

	report, err := f.c.Reconciler.Run(f.ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report[store.QuestionVotes])
	assert.Zero(t, f.reloadQuestion(t, q.ID).VoteCount)
}

func TestReconcile_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)
	_, err := f.store.CompareAndSet(f.ctx, store.QuestionVotes, q.ID, 0, 4)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(f.ctx, 20*time.Millisecond)
	defer cancel()
	_, err = NewReconciler(f.store, time.Hour).Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 4, f.reloadQuestion(t, q.ID).VoteCount)
}

// =============================================================================
// Cascade
// =============================================================================

func TestDeleteQuestion_Cascades(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	topic := f.topic(t, creator.ID, "golang")
	q := f.question(t, creator.ID, &topic.ID)
	f.question(t, creator.ID, &topic.ID)
	f.question(t, creator.ID, &topic.ID)
	require.EqualValues(t, 3, f.reloadTopic(t, topic.ID).QuestionCount)

	for i := range 5 {
		voter := f.user(t, fmt.Sprintf("voter%d@example.com", i))
		_, err := f.c.Voting.Vote(f.ctx, QuestionTarget(q.ID), voter.ID)
		require.NoError(t, err)
	}
	q = f.reloadQuestion(t, q.ID)
	require.EqualValues(t, 5, q.VoteCount)
	before := f.reloadUser(t, creator.ID).VoteCount

	require.NoError(t, f.c.Cascade.DeleteQuestion(f.ctx, q))

	_, err := f.store.FindQuestion(f.ctx, q.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.voteCount(t, QuestionTarget(q.ID)))
	assert.Equal(t, before-5, f.reloadUser(t, creator.ID).VoteCount)
	assert.EqualValues(t, 2, f.reloadTopic(t, topic.ID).QuestionCount)
}

func TestDeleteQuestion_RemovesAnswersAndTheirVotes(t *testing.T) {
	f := newFixture(t)
	asker := f.user(t, "asker@example.com")
	answerer := f.user(t, "answerer@example.com")
	voter := f.user(t, "voter@example.com")
	q := f.question(t, asker.ID, nil)
	a := f.answer(t, q.ID, answerer.ID)
	_, err := f.c.Voting.Vote(f.ctx, AnswerTarget(a.ID), voter.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.reloadUser(t, answerer.ID).VoteCount)

	require.NoError(t, f.c.Cascade.DeleteQuestion(f.ctx, f.reloadQuestion(t, q.ID)))

	_, err = f.store.FindAnswer(f.ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.voteCount(t, AnswerTarget(a.ID)))
	assert.Zero(t, f.reloadUser(t, answerer.ID).VoteCount)
}

func TestCreateAnswer_UpdatesParent(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)
	require.Zero(t, q.AnswerCount)

	a := f.answer(t, q.ID, creator.ID)

	assert.NotZero(t, a.ID)
	assert.Equal(t, q.ID, a.QuestionID)
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).AnswerCount)
}

func TestCreateAnswer_MissingQuestion(t *testing.T) {
	f := newFixture(t)

	err := f.c.Cascade.CreateAnswer(f.ctx, &models.Answer{QuestionID: 404, Content: "x", CreatorID: 1})

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, e.Kind)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "/question_id", e.Fields[0].Field)
}

func TestDeleteAnswer_Cascades(t *testing.T) {
	f := newFixture(t)
	asker := f.user(t, "asker@example.com")
	answerer := f.user(t, "answerer@example.com")
	q := f.question(t, asker.ID, nil)
	a := f.answer(t, q.ID, answerer.ID)
	for i := range 2 {
		voter := f.user(t, fmt.Sprintf("voter%d@example.com", i))
		_, err := f.c.Voting.Vote(f.ctx, AnswerTarget(a.ID), voter.ID)
		require.NoError(t, err)
	}
	a, err := f.store.FindAnswer(f.ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.c.Cascade.DeleteAnswer(f.ctx, a))

	_, err = f.store.FindAnswer(f.ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, f.voteCount(t, AnswerTarget(a.ID)))
	assert.Zero(t, f.reloadQuestion(t, q.ID).AnswerCount)
	assert.Zero(t, f.reloadUser(t, answerer.ID).VoteCount)
}

func TestDeleteAnswer_PartialFailure(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	q := f.question(t, creator.ID, nil)
	a := f.answer(t, q.ID, creator.ID)
	boom := errors.New("disk full")
	f.store.Fail(memstore.OpDeleteAnswer, boom)

	err := f.c.Cascade.DeleteAnswer(f.ctx, a)

	var pw *PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.ErrorIs(t, err, boom)
	require.Len(t, pw.Failed, 1)
	assert.Equal(t, "answer", pw.Failed[0].Step)
	assert.ElementsMatch(t, []string{"votes", "creator_votes", "question_answers"}, pw.Completed)

	// the answer survived but its parent no longer counts it
	assert.Zero(t, f.reloadQuestion(t, q.ID).AnswerCount)
	f.store.Heal()
	report, err := f.c.Reconciler.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report[store.QuestionAnswers])
	assert.EqualValues(t, 1, f.reloadQuestion(t, q.ID).AnswerCount)
}

func TestDeleteTopic_DetachesQuestions(t *testing.T) {
	f := newFixture(t)
	creator := f.user(t, "creator@example.com")
	topic := f.topic(t, creator.ID, "golang")
	q := f.question(t, creator.ID, &topic.ID)

	require.NoError(t, f.c.Cascade.DeleteTopic(f.ctx, topic))

	_, err := f.store.FindTopic(f.ctx, topic.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, f.reloadQuestion(t, q.ID).TopicID)
}

// =============================================================================
// Membership
// =============================================================================

func TestAddMember_Idempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	topic := f.topic(t, owner.ID, "golang")

	for range 2 {
		got, err := f.c.Membership.AddMember(f.ctx, topic.ID, owner.ID, member.Email)
		require.NoError(t, err)
		assert.Equal(t, member.ID, got.ID)
		assert.Equal(t, []int64{member.ID}, []int64(f.reloadTopic(t, topic.ID).Members))
	}

	sent := f.notes.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, member.Email, sent[0].To)
}

func TestAddMember_Failures(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	stranger := f.user(t, "stranger@example.com")
	topic := f.topic(t, owner.ID, "golang")

	t.Run("missing topic", func(t *testing.T) {
		_, err := f.c.Membership.AddMember(f.ctx, 404, owner.ID, stranger.Email)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.c.Membership.AddMember(f.ctx, topic.ID, owner.ID, "nobody@example.com")
		e, ok := apperr.As(err)
		require.True(t, ok)
		assert.Equal(t, apperr.KindNotFound, e.Kind)
		require.Len(t, e.Fields, 1)
		assert.Equal(t, "/email", e.Fields[0].Field)
	})

	t.Run("not the creator", func(t *testing.T) {
		_, err := f.c.Membership.AddMember(f.ctx, topic.ID, stranger.ID, stranger.Email)
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
	})

	assert.Empty(t, f.reloadTopic(t, topic.ID).Members)
	assert.Empty(t, f.notes.messages())
}

func TestRemoveMembers_NonMemberIsNoop(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")
	topic := f.topic(t, owner.ID, "golang")
	_, err := f.c.Membership.AddMember(f.ctx, topic.ID, owner.ID, member.Email)
	require.NoError(t, err)

	require.NoError(t, f.c.Membership.RemoveMembers(f.ctx, topic.ID, owner.ID, []int64{9999}))
	assert.Equal(t, []int64{member.ID}, []int64(f.reloadTopic(t, topic.ID).Members))

	require.NoError(t, f.c.Membership.RemoveMembers(f.ctx, topic.ID, owner.ID, []int64{member.ID, 9999}))
	assert.Empty(t, f.reloadTopic(t, topic.ID).Members)

	err = f.c.Membership.RemoveMembers(f.ctx, 404, owner.ID, []int64{member.ID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// =============================================================================
// Fan-out
// =============================================================================

func TestMultiWrite_ReportsEveryStep(t *testing.T) {
	errA := errors.New("a failed")
	err := newMultiWrite("test").
		add("a", func(context.Context) error { return errA }).
		add("b", func(context.Context) error { return nil }).
		add("c", func(context.Context) error { return nil }).
		run(context.Background())

	var pw *PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.ElementsMatch(t, []string{"b", "c"}, pw.Completed)
	require.Len(t, pw.Failed, 1)
	assert.Equal(t, "a", pw.Failed[0].Step)
	assert.ErrorIs(t, err, errA)
	assert.True(t, IsPartialWrite(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), "1 of 3 steps failed")
}

func TestMultiWrite_AllSucceed(t *testing.T) {
	var mu sync.Mutex
	ran := 0
	mw := newMultiWrite("test")
	for range 3 {
		mw.add("step", func(context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, mw.run(context.Background()))
	assert.Equal(t, 3, ran)
}
