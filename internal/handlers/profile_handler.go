package handlers

import (
	"net/http"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
)

type ProfileRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phoneNumber"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
}

func (r ProfileRequest) patch() service.ProfilePatch {
	return service.ProfilePatch{
		Name:        r.Name,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Password:    r.Password,
	}
}

type UserUpdateRequest struct {
	ProfileRequest
	Role *string `json:"role" binding:"omitempty,oneof=shopper organizer admin"`
}

type ProfileHandler struct {
	users *service.UserService
}

func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
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

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor.UserID, req.patch())
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, user)
}

func (h *ProfileHandler) ListUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	users, err := h.users.List(c.Request.Context(), actor)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithList(c, users, len(users), nil)
}

func (h *ProfileHandler) GetUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	patch := service.UserPatch{ProfilePatch: req.patch()}
	if req.Role != nil {
		role := models.Role(*req.Role)
		patch.Role = &role
	}

	user, err := h.users.Update(c.Request.Context(), actor, id, patch)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, user)
}

func (h *ProfileHandler) DeleteUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, id); err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithMessage(c, http.StatusOK, "User deleted successfully.")
}
