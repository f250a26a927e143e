package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/middleware"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/response"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an account, sets its display name and signs the user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		failAuth(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Login godoc
// POST /api/v1/auth/login
// Signs the user in and returns a token with the landing route for their role.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		failAuth(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the session the request was made with.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetProfile godoc
// GET /api/v1/auth/me
// Returns the signed-in user with their role and landing route.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), user.UID, user.Email, user.DisplayName)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile godoc
// PUT /api/v1/auth/me
// Changes the display name of the signed-in user.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.UpdateProfile(c.Request.Context(), user.UID, req.DisplayName); err != nil {
		failAuth(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// failAuth maps form and provider errors. Provider codes are translated to
// the user-facing message; anything else is an internal error.
func failAuth(c *gin.Context, err error) {
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{formErr.Field: formErr.Message})
		return
	}

	if identity.IsAuthError(err) {
		response.FailWithMessage(c, authStatus(identity.CodeOf(err)), response.ErrAuth, identity.Message(err))
		return
	}

	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func authStatus(code identity.Code) int {
	switch code {
	case identity.CodeEmailAlreadyInUse:
		return http.StatusConflict
	case identity.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case identity.CodeUserDisabled:
		return http.StatusForbidden
	case identity.CodeInvalidEmail, identity.CodeWeakPassword:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}
