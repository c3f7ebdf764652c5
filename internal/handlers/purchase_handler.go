package handlers

import (
	"net/http"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/farellandr/ticketmart/internal/service"
	"github.com/gin-gonic/gin"
)

type VerifyPassRequest struct {
	QRData string `json:"qrData" binding:"required"`
}

// PurchaseHandler serves the signed entry passes of completed orders.
type PurchaseHandler struct {
	passes *service.PassService
}

func NewPurchaseHandler(passes *service.PassService) *PurchaseHandler {
	return &PurchaseHandler{passes: passes}
}

func (h *PurchaseHandler) PassQR(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "order")
	if !ok {
		return
	}

	png, err := h.passes.QRCode(c.Request.Context(), actor, id)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *PurchaseHandler) VerifyPass(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req VerifyPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.passes.Verify(c.Request.Context(), actor, req.QRData)
	if err != nil {
		helpers.RespondWithServiceError(c, err)
		return
	}

	helpers.RespondWithData(c, http.StatusOK, result)
}
