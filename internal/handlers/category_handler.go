package handlers

import (
	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/models"
	"github.com/gin-gonic/gin"
)

// ListCategories returns the fixed set of event categories.
func ListCategories(c *gin.Context) {
	helpers.RespondWithList(c, models.Categories, len(models.Categories), nil)
}
