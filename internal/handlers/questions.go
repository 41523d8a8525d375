package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// ListQuestions pages through questions, optionally narrowed by keyword and topic.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	topicID, valid := queryID(c, "topic_id")
	if !valid {
		return
	}
	page, valid := parsePage(c, questionSorts)
	if !valid {
		return
	}
	filter := models.QuestionFilter{TopicID: topicID, Keyword: c.Query("keyword")}
	data, err := h.questions.List(c.Request.Context(), filter, page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

// ListMyQuestions pages through the caller's own questions.
func (h *QuestionHandler) ListMyQuestions(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	page, valid := parsePage(c, questionSorts)
	if !valid {
		return
	}
	filter := models.QuestionFilter{CreatorID: userID, Keyword: c.Query("keyword")}
	data, err := h.questions.List(c.Request.Context(), filter, page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, q)
}

// CreateQuestion posts a question outside any topic.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	var input models.CreateQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	q, err := h.questions.Create(c.Request.Context(), userID, nil, input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, q)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.UpdateQuestionRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.questions.Update(c.Request.Context(), id, userID, input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *QuestionHandler) Vote(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.questions.Vote(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *QuestionHandler) Unvote(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.questions.Unvote(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
