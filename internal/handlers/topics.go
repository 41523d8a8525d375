package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type TopicHandler struct {
	topics *service.TopicService
}

func NewTopicHandler(topics *service.TopicService) *TopicHandler {
	return &TopicHandler{topics: topics}
}

func (h *TopicHandler) CreateTopic(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	var input models.CreateTopicRequest
	if !bindJSON(c, &input) {
		return
	}
	t, err := h.topics.Create(c.Request.Context(), userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, t)
}

// ListMyTopics pages through the topics the caller created.
func (h *TopicHandler) ListMyTopics(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	page, valid := parsePage(c, topicSorts)
	if !valid {
		return
	}
	data, err := h.topics.Mine(c.Request.Context(), userID, c.Query("keyword"), page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

// ListJoinedTopics pages through the topics the caller is a member of.
func (h *TopicHandler) ListJoinedTopics(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	page, valid := parsePage(c, topicSorts)
	if !valid {
		return
	}
	data, err := h.topics.Joined(c.Request.Context(), userID, c.Query("keyword"), page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

func (h *TopicHandler) GetTopic(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	t, err := h.topics.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, t)
}

func (h *TopicHandler) UpdateTopic(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.UpdateTopicRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.topics.Update(c.Request.Context(), id, userID, input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.topics.Delete(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *TopicHandler) ListMembers(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	page, valid := parsePage(c, userSorts)
	if !valid {
		return
	}
	data, err := h.topics.Members(c.Request.Context(), id, userID, c.Query("keyword"), page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

// AddMember adds the user with the given email to the topic.
func (h *TopicHandler) AddMember(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.AddMemberRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.topics.AddMember(c.Request.Context(), id, userID, input.Email); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *TopicHandler) RemoveMembers(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.RemoveMembersRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.topics.RemoveMembers(c.Request.Context(), id, userID, input.Users); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

// CreateQuestion posts a question inside the topic.
func (h *TopicHandler) CreateQuestion(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.CreateQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	q, err := h.topics.CreateQuestion(c.Request.Context(), id, userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, q)
}
