package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"userdirectory/internal/errors"
	"userdirectory/internal/model"
	"userdirectory/internal/service"
)

// UserHandler bundles HTTP handlers.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	MiddleName     string  `json:"middle_name"`
	Password       string  `json:"password" validate:"required,password"`
	Role           string  `json:"role" validate:"required"`
	OrganizationID string  `json:"organization_id" validate:"required"`
	Designation    string  `json:"designation"`
	Phone          *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email          *string `json:"email" validate:"omitempty,email"`
}

// UpdateUserRequest carries the proposed field values for a user.
// Role and designation only take effect for admin users.
type UpdateUserRequest struct {
	FirstName      string  `json:"first_name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	MiddleName     string  `json:"middle_name"`
	OrganizationID string  `json:"organization_id" validate:"required"`
	Role           string  `json:"role"`
	Designation    string  `json:"designation"`
	Phone          *string `json:"phone" validate:"omitempty,len=10,numeric"`
	Email          *string `json:"email" validate:"omitempty,email"`
}

// UpdateStatusRequest represents a status change request.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// SearchUsersQuery holds the search filters and pagination parameters.
type SearchUsersQuery struct {
	Role           string `query:"role"`
	Status         string `query:"status"`
	OrganizationID string `query:"organization_id"`
	Page           int    `query:"page"`
	Size           int    `query:"size"`
}

// CreateUserResponse is returned when a user is created.
type CreateUserResponse struct {
	UserID string `json:"user_id"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

const defaultPageSize = 10

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} CreateUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /v1/users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	req.Phone = emptyToNil(req.Phone)
	req.Email = emptyToNil(req.Email)
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	user := &model.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		MiddleName:     req.MiddleName,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
		Designation:    req.Designation,
		Phone:          req.Phone,
		Email:          req.Email,
	}
	userID, err := h.svc.CreateUser(c.Request().Context(), user, req.Password)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, CreateUserResponse{UserID: userID})
}

// UpdateUser godoc
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Param user body UpdateUserRequest true "Proposed values"
// @Success 200 {object} model.UserDTO
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /v1/users/{user_id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	req.Phone = emptyToNil(req.Phone)
	req.Email = emptyToNil(req.Email)
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	proposal := &model.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		MiddleName:     req.MiddleName,
		OrganizationID: req.OrganizationID,
		Role:           req.Role,
		Designation:    req.Designation,
		Phone:          req.Phone,
		Email:          req.Email,
	}
	updated, err := h.svc.UpdateUser(c.Request().Context(), c.Param("user_id"), proposal)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// UpdateStatus godoc
// @Summary Change user status
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /v1/users/{user_id} [patch]
func (h *UserHandler) UpdateStatus(c echo.Context) error {
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	msg, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("user_id"), req.Status)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

// GetUser godoc
// @Summary Get user by user id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param user_id path string true "User ID"
// @Success 200 {object} model.UserDTO
// @Failure 404 {object} errors.ErrorResponse
// @Router /v1/users/search/{user_id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.svc.GetUser(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// SearchUsers godoc
// @Summary Search users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role"
// @Param status query string false "Status"
// @Param organization_id query string false "Organization ID"
// @Param page query int false "Zero based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.UserPage
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /v1/users/search [get]
func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := SearchUsersQuery{Size: defaultPageSize}
	if err := c.Bind(&q); err != nil {
		return badRequest("invalid query parameters")
	}

	filter := model.UserFilter{
		Role:           q.Role,
		Status:         q.Status,
		OrganizationID: q.OrganizationID,
	}
	page, err := h.svc.SearchUsers(c.Request().Context(), filter, q.Page, q.Size)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Greet godoc
// @Summary Welcome message
// @Tags meta
// @Produce plain
// @Success 200 {string} string
// @Router /v1/greet [get]
func (h *UserHandler) Greet(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome to the user directory service!")
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func badRequest(message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  "INVALID_REQUEST",
	})
}

func validationFailed(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: err.Error(),
		Code:  "VALIDATION_FAILED",
	})
}

func respondError(err error) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
