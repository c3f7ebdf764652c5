package handlers

import (
	"net/http"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/middleware"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role" binding:"omitempty,oneof=shopper organizer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

func NewAuthHandler(auth *service.AuthService, users *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Role:        models.Role(req.Role),
	})
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusCreated, session)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, session)
}

func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.users.Profile(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, user)
}

// requireActor fetches the authenticated caller, answering 401 when the
// route was reached without one.
func requireActor(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
	}
	return actor, ok
}

func paramID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	parsed, ok := helpers.ParseUUIDParam(c, name)
	if !ok {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID.")
	}
	return parsed, ok
}
