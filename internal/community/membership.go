package community

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/notify"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Notifier accepts messages for background delivery.
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

// Membership mutates the member set of topics. Only a topic's creator may
// change it.
type Membership struct {
	topics   store.TopicStore
	users    store.UserStore
	notifier Notifier
}

func NewMembership(topics store.TopicStore, users store.UserStore, notifier Notifier) *Membership {
	return &Membership{topics: topics, users: users, notifier: notifier}
}

func (m *Membership) ownedTopic(ctx context.Context, topicID, requesterID int64) (*models.Topic, error) {
	t, err := m.topics.FindTopic(ctx, topicID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Topic not found")
	}
	if err != nil {
		return nil, err
	}
	if t.CreatorID != requesterID {
		return nil, apperr.Forbidden("Only the topic creator can change its members")
	}
	return t, nil
}

// AddMember adds the user registered under email to the topic. Adding an
// existing member succeeds without changes. The new member is notified in
// the background.
func (m *Membership) AddMember(ctx context.Context, topicID, requesterID int64, email string) (*models.User, error) {
	var (
		topic *models.Topic
		user  *models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		topic, err = m.ownedTopic(gctx, topicID, requesterID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = m.users.FindUserByEmail(gctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found",
				apperr.Field(apperr.LocationBody, "/email", apperr.CodeNotFound, "No user with this email"))
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if topic.HasMember(user.ID) {
		return user, nil
	}
	added, err := m.topics.AddMember(ctx, topic.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if added && !m.notifier.Enqueue(notify.AddedToTopic(user, topic)) {
		log.WithFields(log.Fields{"topic_id": topic.ID, "user_id": user.ID}).Warn("Member notification not queued")
	}
	return user, nil
}

// RemoveMembers drops userIDs from the topic. Ids that are not members are ignored.
func (m *Membership) RemoveMembers(ctx context.Context, topicID, requesterID int64, userIDs []int64) error {
	topic, err := m.ownedTopic(ctx, topicID, requesterID)
	if err != nil {
		return err
	}
	return m.topics.RemoveMembers(ctx, topic.ID, userIDs)
}
