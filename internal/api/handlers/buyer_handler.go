// internal/api/handlers/buyer_handler.go
package handlers

import (
	"net/http"

	"po-bridge-api-server/internal/api/middleware"
	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/portal"

	"github.com/gin-gonic/gin"
)

type BuyerHandler struct {
	Portal         *portal.Service
	Log            *logger.Logger
	MaxUploadBytes int64
}

type ListOrdersQuery struct {
	Status   string `form:"status" binding:"omitempty,line_status"`
	Supplier string `form:"supplier"`
}

type EditOrdersRequest struct {
	Updates map[string]map[string]string `json:"updates"`
	Deletes []string                     `json:"deletes" binding:"omitempty,dive,objectid"`
}

type lineURI struct {
	ID string `uri:"id" binding:"required,objectid"`
}

// ImportOrders ingests a purchase-order spreadsheet and returns one link per supplier.
func (h *BuyerHandler) ImportOrders(c *gin.Context) {
	upload, cleanup, err := formUpload(c, h.MaxUploadBytes)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	defer cleanup()

	result, err := h.Portal.Import(c.Request.Context(), middleware.CurrentSession(c), upload.Filename, upload.Body)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BuyerHandler) ListOrders(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}

	lines, err := h.Portal.Dashboard(c.Request.Context(), middleware.CurrentSession(c), portal.Filter{
		Status:   query.Status,
		Supplier: query.Supplier,
	})
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

func (h *BuyerHandler) Summary(c *gin.Context) {
	summary, err := h.Portal.Summary(c.Request.Context(), middleware.CurrentSession(c))
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// EditOrders applies id-keyed updates and deletes from the dashboard grid.
func (h *BuyerHandler) EditOrders(c *gin.Context) {
	var req EditOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}
	if len(req.Updates) == 0 && len(req.Deletes) == 0 {
		respond.Error(c, h.Log, apperr.New(apperr.KindValidation, "no updates or deletes given"))
		return
	}

	result, err := h.Portal.ApplyEdits(c.Request.Context(), middleware.CurrentSession(c), portal.EditSet{
		Updates: req.Updates,
		Deletes: req.Deletes,
	})
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BuyerHandler) DeleteOrder(c *gin.Context) {
	var uri lineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}
	if err := h.Portal.Delete(c.Request.Context(), middleware.CurrentSession(c), uri.ID); err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BuyerHandler) ApproveOrder(c *gin.Context) {
	var uri lineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respond.Error(c, h.Log, respond.Binding(err))
		return
	}
	line, err := h.Portal.Approve(c.Request.Context(), middleware.CurrentSession(c), uri.ID)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, line)
}
