package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
)

type AnswerHandler struct {
	answers *service.AnswerService
}

func NewAnswerHandler(answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// ListAnswers pages through answers, usually those of one question.
func (h *AnswerHandler) ListAnswers(c *gin.Context) {
	questionID, valid := queryID(c, "question_id")
	if !valid {
		return
	}
	page, valid := parsePage(c, answerSorts)
	if !valid {
		return
	}
	data, err := h.answers.List(c.Request.Context(), models.AnswerFilter{QuestionID: questionID}, page)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	a, err := h.answers.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, a)
}

func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	var input models.CreateAnswerRequest
	if !bindJSON(c, &input) {
		return
	}
	a, err := h.answers.Create(c.Request.Context(), userID, input)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, a)
}

func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var input models.UpdateAnswerRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.answers.Update(c.Request.Context(), id, userID, input); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.answers.Delete(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *AnswerHandler) Vote(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.answers.Vote(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *AnswerHandler) Unvote(c *gin.Context) {
	userID, found := currentUserID(c)
	if !found {
		return
	}
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.answers.Unvote(c.Request.Context(), id, userID); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
