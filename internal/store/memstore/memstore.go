// Package memstore is an in-process store.Store for development and tests.
// Every operation takes the store lock, so a single call is atomic, but
// like the SQL store nothing spans calls.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Operation names accepted by Fail.
const (
	OpFindVote       = "votes.find"
	OpInsertVote     = "votes.insert"
	OpDeleteVote     = "votes.delete"
	OpDeleteVotesFor = "votes.delete_for_target"
	OpAdjust         = "counters.adjust"
	OpDeleteQuestion = "questions.delete"
	OpCreateAnswer   = "answers.create"
	OpDeleteAnswer   = "answers.delete"
	OpAddMember      = "topics.add_member"
)

type voteKey struct {
	voter  int64
	kind   models.TargetKind
	target int64
}

type Store struct {
	mu sync.RWMutex

	seq       int64
	users     map[int64]models.User
	topics    map[int64]models.Topic
	questions map[int64]models.Question
	answers   map[int64]models.Answer
	tags      map[int64]models.QuestionTag
	votes     map[int64]models.Vote
	voteIndex map[voteKey]int64

	faults map[string]error
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:     make(map[int64]models.User),
		topics:    make(map[int64]models.Topic),
		questions: make(map[int64]models.Question),
		answers:   make(map[int64]models.Answer),
		tags:      make(map[int64]models.QuestionTag),
		votes:     make(map[int64]models.Vote),
		voteIndex: make(map[voteKey]int64),
		faults:    make(map[string]error),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Votes() store.VoteStore         { return s }
func (s *Store) Counters() store.CounterStore   { return s }
func (s *Store) Users() store.UserStore         { return s }
func (s *Store) Topics() store.TopicStore       { return s }
func (s *Store) Questions() store.QuestionStore { return s }
func (s *Store) Answers() store.AnswerStore     { return s }
func (s *Store) Tags() store.TagStore           { return s }

// Fail makes every later call of op return err until Heal is called.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func checkCtx(ctx context.Context) error {
	return ctx.Err()
}

// Votes

func (s *Store) FindVote(ctx context.Context, voterID int64, kind models.TargetKind, targetID int64) (*models.Vote, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fault(OpFindVote); err != nil {
		return nil, err
	}
	id, ok := s.voteIndex[voteKey{voterID, kind, targetID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	v := s.votes[id]
	return &v, nil
}

func (s *Store) InsertVote(ctx context.Context, v *models.Vote) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpInsertVote); err != nil {
		return err
	}
	key := voteKey{v.VoterID, v.TargetKind, v.TargetID}
	if _, ok := s.voteIndex[key]; ok {
		return fmt.Errorf("%w: idx_votes_voter_target", store.ErrDuplicate)
	}
	v.ID = s.nextID()
	v.CreatedAt = s.now()
	s.votes[v.ID] = *v
	s.voteIndex[key] = v.ID
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, id int64) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteVote); err != nil {
		return false, err
	}
	v, ok := s.votes[id]
	if !ok {
		return false, nil
	}
	delete(s.votes, id)
	delete(s.voteIndex, voteKey{v.VoterID, v.TargetKind, v.TargetID})
	return true, nil
}

func (s *Store) DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteVotesFor); err != nil {
		return 0, err
	}
	var n int64
	for id, v := range s.votes {
		if v.TargetKind == kind && v.TargetID == targetID {
			delete(s.votes, id)
			delete(s.voteIndex, voteKey{v.VoterID, v.TargetKind, v.TargetID})
			n++
		}
	}
	return n, nil
}

func (s *Store) CountVotes(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countVotes(kind, targetID), nil
}

func (s *Store) countVotes(kind models.TargetKind, targetID int64) int64 {
	var n int64
	for _, v := range s.votes {
		if v.TargetKind == kind && v.TargetID == targetID {
			n++
		}
	}
	return n
}

// Counters

// counterField returns a pointer-like accessor for counter c of record id.
func (s *Store) counterField(c store.Counter, id int64, apply func(*int64)) (bool, error) {
	switch c {
	case store.QuestionVotes, store.QuestionAnswers:
		q, ok := s.questions[id]
		if !ok {
			return false, nil
		}
		if c == store.QuestionVotes {
			apply(&q.VoteCount)
		} else {
			apply(&q.AnswerCount)
		}
		s.questions[id] = q
	case store.AnswerVotes:
		a, ok := s.answers[id]
		if !ok {
			return false, nil
		}
		apply(&a.VoteCount)
		s.answers[id] = a
	case store.TopicQuestions:
		t, ok := s.topics[id]
		if !ok {
			return false, nil
		}
		apply(&t.QuestionCount)
		s.topics[id] = t
	case store.UserVotes:
		u, ok := s.users[id]
		if !ok {
			return false, nil
		}
		apply(&u.VoteCount)
		s.users[id] = u
	default:
		return false, fmt.Errorf("unknown counter %d", c)
	}
	return true, nil
}

func (s *Store) Adjust(ctx context.Context, c store.Counter, id int64, delta int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpAdjust); err != nil {
		return err
	}
	_, err := s.counterField(c, id, func(v *int64) { *v = max(*v+delta, 0) })
	return err
}

func (s *Store) CompareAndSet(ctx context.Context, c store.Counter, id int64, stored, value int64) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	written := false
	_, err := s.counterField(c, id, func(v *int64) {
		if *v == stored {
			*v = max(value, 0)
			written = true
		}
	})
	return written, err
}

func (s *Store) Drift(ctx context.Context, c store.Counter) ([]store.Tally, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Tally
	add := func(id, stored, actual int64) {
		if stored != actual {
			out = append(out, store.Tally{ID: id, Stored: stored, Actual: actual})
		}
	}
	switch c {
	case store.QuestionVotes:
		for id, q := range s.questions {
			add(id, q.VoteCount, s.countVotes(models.TargetQuestion, id))
		}
	case store.AnswerVotes:
		for id, a := range s.answers {
			add(id, a.VoteCount, s.countVotes(models.TargetAnswer, id))
		}
	case store.QuestionAnswers:
		for id, q := range s.questions {
			var n int64
			for _, a := range s.answers {
				if a.QuestionID == id {
					n++
				}
			}
			add(id, q.AnswerCount, n)
		}
	case store.TopicQuestions:
		for id, t := range s.topics {
			var n int64
			for _, q := range s.questions {
				if q.TopicID != nil && *q.TopicID == id {
					n++
				}
			}
			add(id, t.QuestionCount, n)
		}
	case store.UserVotes:
		received := make(map[int64]int64)
		for _, v := range s.votes {
			switch v.TargetKind {
			case models.TargetQuestion:
				if q, ok := s.questions[v.TargetID]; ok {
					received[q.CreatorID]++
				}
			case models.TargetAnswer:
				if a, ok := s.answers[v.TargetID]; ok {
					received[a.CreatorID]++
				}
			}
		}
		for id, u := range s.users {
			add(id, u.VoteCount, received[id])
		}
	default:
		return nil, fmt.Errorf("unknown counter %d", c)
	}
	slices.SortFunc(out, func(a, b store.Tally) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Users

func (s *Store) FindUser(ctx context.Context, id int64) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindUsers(ctx context.Context, ids []int64) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.users, ids), nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if other.Email == u.Email {
			return fmt.Errorf("%w: users.email", store.ErrDuplicate)
		}
	}
	u.ID = s.nextID()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("%w: users.email", store.ErrDuplicate)
		}
	}
	next := *u
	next.VoteCount = old.VoteCount
	next.CreatedAt = old.CreatedAt
	next.UpdatedAt = s.now()
	s.users[u.ID] = next
	u.VoteCount, u.UpdatedAt = next.VoteCount, next.UpdatedAt
	return nil
}

func (s *Store) ListUsers(ctx context.Context, ids []int64, keyword string, page models.Page) ([]models.User, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.User
	for _, u := range pick(s.users, ids) {
		if keyword != "" && !containsFold(keyword, u.FirstName, u.LastName, u.Email) {
			continue
		}
		matched = append(matched, u)
	}
	return window(matched, page, userColumn)
}

// Topics

func (s *Store) FindTopic(ctx context.Context, id int64) (*models.Topic, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	t.Members = slices.Clone(t.Members)
	return &t, nil
}

func (s *Store) FindTopics(ctx context.Context, ids []int64) ([]models.Topic, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.topics, ids), nil
}

func (s *Store) CreateTopic(ctx context.Context, t *models.Topic) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.topics {
		if other.Name == t.Name {
			return fmt.Errorf("%w: topics.name", store.ErrDuplicate)
		}
	}
	if t.Members == nil {
		t.Members = pq.Int64Array{}
	}
	t.ID = s.nextID()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	stored := *t
	stored.Members = slices.Clone(t.Members)
	s.topics[t.ID] = stored
	return nil
}

func (s *Store) SaveTopic(ctx context.Context, t *models.Topic) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.topics[t.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.topics {
		if id != t.ID && other.Name == t.Name {
			return fmt.Errorf("%w: topics.name", store.ErrDuplicate)
		}
	}
	old.Name, old.Desc, old.UpdatedAt = t.Name, t.Desc, s.now()
	s.topics[t.ID] = old
	return nil
}

func (s *Store) DeleteTopic(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, id)
	return nil
}

func (s *Store) ListTopics(ctx context.Context, f store.TopicFilter, page models.Page) ([]models.Topic, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Topic
	for _, t := range s.topics {
		if f.CreatorID != 0 && t.CreatorID != f.CreatorID {
			continue
		}
		if f.MemberID != 0 && !t.HasMember(f.MemberID) {
			continue
		}
		if f.Keyword != "" && !containsFold(f.Keyword, t.Name, t.Desc) {
			continue
		}
		t.Members = slices.Clone(t.Members)
		matched = append(matched, t)
	}
	return window(matched, page, topicColumn)
}

func (s *Store) AddMember(ctx context.Context, topicID, userID int64) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpAddMember); err != nil {
		return false, err
	}
	t, ok := s.topics[topicID]
	if !ok || t.HasMember(userID) {
		return false, nil
	}
	t.Members = append(slices.Clone(t.Members), userID)
	s.topics[topicID] = t
	return true, nil
}

func (s *Store) RemoveMembers(ctx context.Context, topicID int64, userIDs []int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicID]
	if !ok {
		return nil
	}
	t.Members = slices.DeleteFunc(slices.Clone(t.Members), func(id int64) bool {
		return slices.Contains(userIDs, id)
	})
	s.topics[topicID] = t
	return nil
}

// Questions

func (s *Store) FindQuestion(ctx context.Context, id int64) (*models.Question, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	q.Tags = slices.Clone(q.Tags)
	return &q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.Tags == nil {
		q.Tags = pq.Int64Array{}
	}
	q.ID = s.nextID()
	q.CreatedAt = s.now()
	q.UpdatedAt = q.CreatedAt
	stored := *q
	stored.Tags = slices.Clone(q.Tags)
	s.questions[q.ID] = stored
	return nil
}

func (s *Store) SaveQuestion(ctx context.Context, q *models.Question) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.questions[q.ID]
	if !ok {
		return store.ErrNotFound
	}
	next := *q
	next.Tags = slices.Clone(q.Tags)
	next.VoteCount, next.AnswerCount, next.CreatedAt = old.VoteCount, old.AnswerCount, old.CreatedAt
	next.CreatorID, next.TopicID = old.CreatorID, old.TopicID
	next.UpdatedAt = s.now()
	s.questions[q.ID] = next
	q.VoteCount, q.AnswerCount, q.UpdatedAt = next.VoteCount, next.AnswerCount, next.UpdatedAt
	q.CreatorID, q.TopicID = next.CreatorID, next.TopicID
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteQuestion); err != nil {
		return err
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) ListQuestions(ctx context.Context, f models.QuestionFilter, page models.Page) ([]models.Question, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyword := strings.ToLower(f.Keyword)
	var matched []models.Question
	for _, q := range s.questions {
		if f.CreatorID != 0 && q.CreatorID != f.CreatorID {
			continue
		}
		if f.TopicID != 0 && (q.TopicID == nil || *q.TopicID != f.TopicID) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(q.Title), keyword) &&
			!strings.Contains(strings.ToLower(q.Content), keyword) {
			continue
		}
		q.Tags = slices.Clone(q.Tags)
		matched = append(matched, q)
	}
	return window(matched, page, questionColumn)
}

func (s *Store) DetachTopic(ctx context.Context, topicID int64) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, q := range s.questions {
		if q.TopicID != nil && *q.TopicID == topicID {
			q.TopicID = nil
			s.questions[id] = q
			n++
		}
	}
	return n, nil
}

// Answers

func (s *Store) FindAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpCreateAnswer); err != nil {
		return err
	}
	a.ID = s.nextID()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.answers[a.ID] = *a
	return nil
}

func (s *Store) SaveAnswer(ctx context.Context, a *models.Answer) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.answers[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	next := *a
	next.VoteCount, next.CreatedAt, next.UpdatedAt = old.VoteCount, old.CreatedAt, s.now()
	s.answers[a.ID] = next
	a.VoteCount, a.UpdatedAt = next.VoteCount, next.UpdatedAt
	return nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault(OpDeleteAnswer); err != nil {
		return err
	}
	delete(s.answers, id)
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, f models.AnswerFilter, page models.Page) ([]models.Answer, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []models.Answer
	for _, a := range s.answers {
		if f.QuestionID != 0 && a.QuestionID != f.QuestionID {
			continue
		}
		if f.CreatorID != 0 && a.CreatorID != f.CreatorID {
			continue
		}
		matched = append(matched, a)
	}
	return window(matched, page, answerColumn)
}

// Tags

func (s *Store) FindTag(ctx context.Context, id int64) (*models.QuestionTag, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) FindTags(ctx context.Context, ids []int64) ([]models.QuestionTag, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.tags, ids), nil
}

func (s *Store) CreateTag(ctx context.Context, t *models.QuestionTag) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.tags {
		if other.Name == t.Name {
			return fmt.Errorf("%w: question_tags.name", store.ErrDuplicate)
		}
	}
	t.ID = s.nextID()
	t.CreatedAt = s.now()
	s.tags[t.ID] = *t
	return nil
}

func (s *Store) ListTags(ctx context.Context, keyword string, page models.Page) ([]models.QuestionTag, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	keyword = strings.ToLower(keyword)
	var matched []models.QuestionTag
	for _, t := range s.tags {
		if keyword == "" || strings.Contains(strings.ToLower(t.Name), keyword) {
			matched = append(matched, t)
		}
	}
	return window(matched, page, tagColumn)
}
