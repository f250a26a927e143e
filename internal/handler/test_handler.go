package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/service"
)

// TestHandler serves persisted tests to admins and students.
type TestHandler struct {
	testService *service.TestService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService) *TestHandler {
	return &TestHandler{testService: testService}
}

// ListTests godoc
// GET /api/v1/admin/tests
// GET /api/v1/student/tests
// Lists every test with its rendered description.
func (h *TestHandler) ListTests(c *gin.Context) {
	tests, err := h.testService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// GetTest godoc
// GET /api/v1/admin/tests/:id
func (h *TestHandler) GetTest(c *gin.Context) {
	test, err := h.testService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}
