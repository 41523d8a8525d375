package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

const pgUniqueViolation = "23505"

// GormStore implements Store on PostgreSQL through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Votes() VoteStore         { return s }
func (s *GormStore) Counters() CounterStore   { return s }
func (s *GormStore) Users() UserStore         { return s }
func (s *GormStore) Topics() TopicStore       { return s }
func (s *GormStore) Questions() QuestionStore { return s }
func (s *GormStore) Answers() AnswerStore     { return s }
func (s *GormStore) Tags() TagStore           { return s }

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func paginate(page models.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, r := range page.Sort {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: r.Column}, Desc: r.Desc})
		}
		if page.Offset > 0 {
			db = db.Offset(page.Offset)
		}
		if page.Limit > 0 {
			db = db.Limit(page.Limit)
		}
		return db
	}
}

func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(keyword) + "%"
}

// list counts matches of scope and loads one page of them into out.
func list[T any](ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB, page models.Page) ([]T, int64, error) {
	var (
		total int64
		out   []T
	)
	if err := db.WithContext(ctx).Model(new(T)).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.WithContext(ctx).Model(new(T)).Scopes(scope, paginate(page)).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func first[T any](ctx context.Context, db *gorm.DB, id int64) (*T, error) {
	var out T
	if err := db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func byIDs[T any](ctx context.Context, db *gorm.DB, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []T
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Votes

func (s *GormStore) FindVote(ctx context.Context, voterID int64, kind models.TargetKind, targetID int64) (*models.Vote, error) {
	var v models.Vote
	err := s.db.WithContext(ctx).
		Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (s *GormStore) InsertVote(ctx context.Context, v *models.Vote) error {
	return translate(s.db.WithContext(ctx).Create(v).Error)
}

func (s *GormStore) DeleteVote(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Vote{}, id)
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Delete(&models.Vote{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) CountVotes(ctx context.Context, kind models.TargetKind, targetID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Count(&n).Error
	return n, err
}

// Counters

type counterColumn struct {
	table  string
	column string
}

var counterColumns = map[Counter]counterColumn{
	QuestionVotes:   {"questions", "vote_count"},
	AnswerVotes:     {"answers", "vote_count"},
	QuestionAnswers: {"questions", "answer_count"},
	TopicQuestions:  {"topics", "question_count"},
	UserVotes:       {"users", "vote_count"},
}

var driftQueries = map[Counter]string{
	QuestionVotes: `SELECT q.id, q.vote_count AS stored, COUNT(v.id) AS actual
		FROM questions q LEFT JOIN votes v ON v.target_kind = 'question' AND v.target_id = q.id
		GROUP BY q.id, q.vote_count HAVING q.vote_count <> COUNT(v.id)`,
	AnswerVotes: `SELECT a.id, a.vote_count AS stored, COUNT(v.id) AS actual
		FROM answers a LEFT JOIN votes v ON v.target_kind = 'answer' AND v.target_id = a.id
		GROUP BY a.id, a.vote_count HAVING a.vote_count <> COUNT(v.id)`,
	QuestionAnswers: `SELECT q.id, q.answer_count AS stored, COUNT(a.id) AS actual
		FROM questions q LEFT JOIN answers a ON a.question_id = q.id
		GROUP BY q.id, q.answer_count HAVING q.answer_count <> COUNT(a.id)`,
	TopicQuestions: `SELECT t.id, t.question_count AS stored, COUNT(q.id) AS actual
		FROM topics t LEFT JOIN questions q ON q.topic_id = t.id
		GROUP BY t.id, t.question_count HAVING t.question_count <> COUNT(q.id)`,
	UserVotes: `SELECT id, stored, actual FROM (
		SELECT u.id, u.vote_count AS stored,
			(SELECT COUNT(*) FROM votes v JOIN questions q ON v.target_kind = 'question' AND v.target_id = q.id WHERE q.creator_id = u.id) +
			(SELECT COUNT(*) FROM votes v JOIN answers a ON v.target_kind = 'answer' AND v.target_id = a.id WHERE a.creator_id = u.id) AS actual
		FROM users u) t
		WHERE stored <> actual`,
}

func (s *GormStore) Adjust(ctx context.Context, c Counter, id int64, delta int64) error {
	col, ok := counterColumns[c]
	if !ok {
		return fmt.Errorf("unknown counter %d", c)
	}
	if delta == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Table(col.table).
		Where("id = ?", id).
		UpdateColumn(col.column, gorm.Expr("GREATEST("+col.column+" + ?, 0)", delta)).Error
}

func (s *GormStore) CompareAndSet(ctx context.Context, c Counter, id int64, stored, value int64) (bool, error) {
	col, ok := counterColumns[c]
	if !ok {
		return false, fmt.Errorf("unknown counter %d", c)
	}
	res := s.db.WithContext(ctx).Table(col.table).
		Where("id = ? AND "+col.column+" = ?", id, stored).
		UpdateColumn(col.column, max(value, 0))
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) Drift(ctx context.Context, c Counter) ([]Tally, error) {
	q, ok := driftQueries[c]
	if !ok {
		return nil, fmt.Errorf("unknown counter %d", c)
	}
	var out []Tally
	if err := s.db.WithContext(ctx).Raw(q).Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Users

func (s *GormStore) FindUser(ctx context.Context, id int64) (*models.User, error) {
	return first[models.User](ctx, s.db, id)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) FindUsers(ctx context.Context, ids []int64) ([]models.User, error) {
	return byIDs[models.User](ctx, s.db, ids)
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// SaveUser writes every field except the vote counter.
func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Model(u).Select("*").Omit("vote_count", "created_at").Updates(u).Error)
}

func (s *GormStore) ListUsers(ctx context.Context, ids []int64, keyword string, page models.Page) ([]models.User, int64, error) {
	if len(ids) == 0 {
		return nil, 0, nil
	}
	return list[models.User](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		db = db.Where("id IN ?", ids)
		if keyword != "" {
			p := likePattern(keyword)
			db = db.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", p, p, p)
		}
		return db
	}, page)
}

// Topics

func (s *GormStore) FindTopic(ctx context.Context, id int64) (*models.Topic, error) {
	return first[models.Topic](ctx, s.db, id)
}

func (s *GormStore) FindTopics(ctx context.Context, ids []int64) ([]models.Topic, error) {
	return byIDs[models.Topic](ctx, s.db, ids)
}

func (s *GormStore) CreateTopic(ctx context.Context, t *models.Topic) error {
	if t.Members == nil {
		t.Members = pq.Int64Array{}
	}
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

// SaveTopic writes name and description. Members and counters have their own operations.
func (s *GormStore) SaveTopic(ctx context.Context, t *models.Topic) error {
	return translate(s.db.WithContext(ctx).Model(t).Select("name", "description", "updated_at").Updates(t).Error)
}

func (s *GormStore) DeleteTopic(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&models.Topic{}, id).Error
}

func (s *GormStore) ListTopics(ctx context.Context, f TopicFilter, page models.Page) ([]models.Topic, int64, error) {
	return list[models.Topic](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		if f.CreatorID != 0 {
			db = db.Where("creator_id = ?", f.CreatorID)
		}
		if f.MemberID != 0 {
			db = db.Where("? = ANY(members)", f.MemberID)
		}
		if f.Keyword != "" {
			p := likePattern(f.Keyword)
			db = db.Where("(name ILIKE ? OR description ILIKE ?)", p, p)
		}
		return db
	}, page)
}

func (s *GormStore) AddMember(ctx context.Context, topicID, userID int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("id = ? AND NOT (? = ANY(members))", topicID, userID).
		UpdateColumn("members", gorm.Expr("array_append(members, ?::bigint)", userID))
	return res.RowsAffected > 0, res.Error
}

func (s *GormStore) RemoveMembers(ctx context.Context, topicID int64, userIDs []int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Topic{}).
		Where("id = ?", topicID).
		UpdateColumn("members", gorm.Expr(
			"ARRAY(SELECT m FROM unnest(members) AS m WHERE NOT (m = ANY(?::bigint[])))",
			pq.Int64Array(userIDs),
		)).Error
}

// Questions

func (s *GormStore) FindQuestion(ctx context.Context, id int64) (*models.Question, error) {
	return first[models.Question](ctx, s.db, id)
}

func (s *GormStore) CreateQuestion(ctx context.Context, q *models.Question) error {
	if q.Tags == nil {
		q.Tags = pq.Int64Array{}
	}
	return translate(s.db.WithContext(ctx).Create(q).Error)
}

// SaveQuestion writes the editable fields. Counters, owner and topic are
// left to their own writers.
func (s *GormStore) SaveQuestion(ctx context.Context, q *models.Question) error {
	return translate(s.db.WithContext(ctx).Model(q).Select("*").
		Omit("vote_count", "answer_count", "created_at", "creator_id", "topic_id").Updates(q).Error)
}

func (s *GormStore) DeleteQuestion(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&models.Question{}, id).Error
}

func (s *GormStore) ListQuestions(ctx context.Context, f models.QuestionFilter, page models.Page) ([]models.Question, int64, error) {
	return list[models.Question](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		if f.CreatorID != 0 {
			db = db.Where("creator_id = ?", f.CreatorID)
		}
		if f.TopicID != 0 {
			db = db.Where("topic_id = ?", f.TopicID)
		}
		if f.Keyword != "" {
			p := likePattern(f.Keyword)
			db = db.Where("(title ILIKE ? OR content ILIKE ?)", p, p)
		}
		return db
	}, page)
}

func (s *GormStore) DetachTopic(ctx context.Context, topicID int64) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("topic_id = ?", topicID).
		UpdateColumn("topic_id", nil)
	return res.RowsAffected, res.Error
}

// Answers

func (s *GormStore) FindAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	return first[models.Answer](ctx, s.db, id)
}

func (s *GormStore) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

// SaveAnswer writes every field except the vote counter.
func (s *GormStore) SaveAnswer(ctx context.Context, a *models.Answer) error {
	return translate(s.db.WithContext(ctx).Model(a).Select("*").Omit("vote_count", "created_at").Updates(a).Error)
}

func (s *GormStore) DeleteAnswer(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&models.Answer{}, id).Error
}

func (s *GormStore) ListAnswers(ctx context.Context, f models.AnswerFilter, page models.Page) ([]models.Answer, int64, error) {
	return list[models.Answer](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		if f.QuestionID != 0 {
			db = db.Where("question_id = ?", f.QuestionID)
		}
		if f.CreatorID != 0 {
			db = db.Where("creator_id = ?", f.CreatorID)
		}
		return db
	}, page)
}

// Tags

func (s *GormStore) FindTag(ctx context.Context, id int64) (*models.QuestionTag, error) {
	return first[models.QuestionTag](ctx, s.db, id)
}

func (s *GormStore) FindTags(ctx context.Context, ids []int64) ([]models.QuestionTag, error) {
	return byIDs[models.QuestionTag](ctx, s.db, ids)
}

func (s *GormStore) CreateTag(ctx context.Context, t *models.QuestionTag) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *GormStore) ListTags(ctx context.Context, keyword string, page models.Page) ([]models.QuestionTag, int64, error) {
	return list[models.QuestionTag](ctx, s.db, func(db *gorm.DB) *gorm.DB {
		if keyword != "" {
			db = db.Where("name ILIKE ?", likePattern(keyword))
		}
		return db
	}, page)
}
