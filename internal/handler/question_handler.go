package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/middleware"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/validator"
)

// QuestionHandler handles question bank endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions godoc
// GET /api/v1/admin/questions?page=1&per_page=20&search=
// Lists the question bank, newest first.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	questions, pagination, err := h.questionService.List(c.Request.Context(), page, perPage, c.Query("search"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	question, err := h.questionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
// Adds a question to the bank.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), claims.UID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOptionsRequired), errors.Is(err, service.ErrOptionsNotAllowed):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"options": err.Error()})
		case errors.Is(err, service.ErrEmptyQuestionText):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"text": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}
