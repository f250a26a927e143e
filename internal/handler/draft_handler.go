package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/editor"
	"github.com/stemsi/examforge/internal/middleware"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/validator"
)

// DraftHandler handles the test-authoring editor endpoints. Every mutation
// answers with the updated draft view.
type DraftHandler struct {
	draftService *service.DraftService
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(draftService *service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

// CreateDraft godoc
// POST /api/v1/admin/drafts
// Starts an empty test draft.
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.Create(c.Request.Context(), uid)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"draft": draft})
}

// ListDrafts godoc
// GET /api/v1/admin/drafts
// Lists the author's drafts, most recently edited first.
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	drafts, err := h.draftService.List(c.Request.Context(), uid)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"drafts": drafts})
}

// GetDraft godoc
// GET /api/v1/admin/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// DeleteDraft godoc
// DELETE /api/v1/admin/drafts/:id
// Discards a draft.
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	if err := h.draftService.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// UpdateDetails godoc
// PUT /api/v1/admin/drafts/:id/details
// Stores the title, description and duration text as typed.
func (h *DraftHandler) UpdateDetails(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.UpdateDraftDetailsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.UpdateDetails(c.Request.Context(), uid, c.Param("id"), req)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// AddSection godoc
// POST /api/v1/admin/drafts/:id/sections
func (h *DraftHandler) AddSection(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.NameRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.AddSection(c.Request.Context(), uid, c.Param("id"), req.Name)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"draft": draft})
}

// DeleteSection godoc
// DELETE /api/v1/admin/drafts/:id/sections/:section_id?confirm=true
// Removes a section with its subsections and assignments. Without confirm
// the client gets the confirmation text back instead.
func (h *DraftHandler) DeleteSection(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.DeleteSection(c.Request.Context(), uid, c.Param("id"), c.Param("section_id"), confirmed(c))
	if err != nil {
		if errors.Is(err, editor.ErrConfirmationRequired) {
			response.FailWithMessage(c, http.StatusConflict, response.ErrConfirmationRequired, editor.ConfirmDeleteSection)
			return
		}
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// ToggleExpanded godoc
// POST /api/v1/admin/drafts/:id/sections/:section_id/expand
func (h *DraftHandler) ToggleExpanded(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.ToggleExpanded(c.Request.Context(), uid, c.Param("id"), c.Param("section_id"))
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// AddSubsection godoc
// POST /api/v1/admin/drafts/:id/sections/:section_id/subsections
func (h *DraftHandler) AddSubsection(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.NameRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.AddSubsection(c.Request.Context(), uid, c.Param("id"), c.Param("section_id"), req.Name)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"draft": draft})
}

// DeleteSubsection godoc
// DELETE /api/v1/admin/drafts/:id/sections/:section_id/subsections/:subsection_id?confirm=true
func (h *DraftHandler) DeleteSubsection(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.DeleteSubsection(c.Request.Context(), uid, c.Param("id"), c.Param("section_id"), c.Param("subsection_id"), confirmed(c))
	if err != nil {
		if errors.Is(err, editor.ErrConfirmationRequired) {
			response.FailWithMessage(c, http.StatusConflict, response.ErrConfirmationRequired, editor.ConfirmDeleteSubsection)
			return
		}
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// SetActive godoc
// PUT /api/v1/admin/drafts/:id/active
// Selects the subsection that receives toggled questions.
func (h *DraftHandler) SetActive(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.SetActiveTargetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.SetActive(c.Request.Context(), uid, c.Param("id"), req)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// SetSearch godoc
// PUT /api/v1/admin/drafts/:id/search
func (h *DraftHandler) SetSearch(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.SetSearchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.SetSearch(c.Request.Context(), uid, c.Param("id"), req.Query)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// ListQuestions godoc
// GET /api/v1/admin/drafts/:id/questions
// Lists the bank under the draft's search filter with assignment markers.
func (h *DraftHandler) ListQuestions(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	items, err := h.draftService.Questions(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": items})
}

// ToggleQuestion godoc
// POST /api/v1/admin/drafts/:id/questions/:question_id/toggle
// Assigns the question to the active subsection, moves it there, or
// unassigns it when it is already there.
func (h *DraftHandler) ToggleQuestion(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	result, err := h.draftService.ToggleQuestion(c.Request.Context(), uid, c.Param("id"), c.Param("question_id"))
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assigned": result.Assigned, "draft": result.Draft})
}

// EditMarks godoc
// PATCH /api/v1/admin/drafts/:id/questions/:question_id
// Edits marks or negative marks of an assigned question. The raw text is
// kept and only checked on submit.
func (h *DraftHandler) EditMarks(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	var req model.EditMarksRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	draft, err := h.draftService.EditMarks(c.Request.Context(), uid, c.Param("id"), c.Param("question_id"), req)
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"draft": draft})
}

// Submit godoc
// POST /api/v1/admin/drafts/:id/submit
// Validates the draft and stores it as a test. The draft is discarded only
// when the test was stored.
func (h *DraftHandler) Submit(c *gin.Context) {
	uid, ok := callerUID(c)
	if !ok {
		return
	}

	test, err := h.draftService.Submit(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failDraft(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

func callerUID(c *gin.Context) (string, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return "", false
	}
	return claims.UID, true
}

func confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}

func failDraft(c *gin.Context, err error) {
	var (
		validationErr *editor.ValidationError
		persistErr    *service.PersistError
	)

	switch {
	case errors.As(err, &validationErr):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrEditorValidation, validationErr.Message)
	case errors.As(err, &persistErr):
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrSubmitFailed, persistErr.Error())
	case errors.Is(err, service.ErrDraftNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrDraftNotFound)
	case errors.Is(err, editor.ErrSectionNotFound),
		errors.Is(err, editor.ErrSubsectionNotFound),
		errors.Is(err, repository.ErrNotFound):
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, err.Error())
	case errors.Is(err, editor.ErrUnknownField):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"field": err.Error()})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
