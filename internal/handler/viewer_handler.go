package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/validator"
	"github.com/stemsi/examforge/internal/viewer"
)

// ViewerHandler handles the student test viewer.
type ViewerHandler struct {
	viewerService *service.ViewerService
}

// NewViewerHandler creates a new ViewerHandler.
func NewViewerHandler(viewerService *service.ViewerService) *ViewerHandler {
	return &ViewerHandler{viewerService: viewerService}
}

// OpenTest godoc
// POST /api/v1/student/tests/:id/open
// Loads the test and places the student on the first question.
func (h *ViewerHandler) OpenTest(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	opened, err := h.viewerService.Open(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failViewer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": opened})
}

// CurrentQuestion godoc
// GET /api/v1/student/tests/:id/current
func (h *ViewerHandler) CurrentQuestion(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	state, err := h.viewerService.Current(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failViewer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// NextQuestion godoc
// POST /api/v1/student/tests/:id/next
// Moves forward; stays put on the last question.
func (h *ViewerHandler) NextQuestion(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	state, err := h.viewerService.Next(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failViewer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// PreviousQuestion godoc
// POST /api/v1/student/tests/:id/previous
// Moves back; stays put on the first question.
func (h *ViewerHandler) PreviousQuestion(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	state, err := h.viewerService.Previous(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failViewer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// GoToQuestion godoc
// POST /api/v1/student/tests/:id/goto
// Jumps to an index. Out-of-range indexes are clamped.
func (h *ViewerHandler) GoToQuestion(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.GoToRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.viewerService.GoTo(c.Request.Context(), uid, c.Param("id"), *req.Index)
	if err != nil {
		failViewer(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

func failViewer(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotOpened):
		response.Fail(c, http.StatusConflict, response.ErrTestNotOpened)
	case errors.Is(err, viewer.ErrTestNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrTestUnavailable, viewer.Message(err))
	case errors.Is(err, viewer.ErrNoQuestions), errors.Is(err, viewer.ErrNoValidQuestions):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrTestUnavailable, viewer.Message(err))
	default:
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrTestUnavailable, viewer.Message(err))
	}
}
