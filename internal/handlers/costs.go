package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skylog/api/internal/ids"
	"skylog/api/internal/middleware"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
	"skylog/api/internal/service"
)

type costEntryRequest struct {
	Category    string `json:"category" binding:"required,oneof=rental instruction fuel exam other"`
	AmountCents int64  `json:"amountCents" binding:"required,gt=0"`
	IncurredOn  string `json:"incurredOn" binding:"required"`
	Note        string `json:"note"`
}

type costEntryResponse struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	AmountCents int64     `json:"amountCents"`
	IncurredOn  string    `json:"incurredOn"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCostEntryResponse(entry models.CostEntry) costEntryResponse {
	return costEntryResponse{
		ID:          entry.ID,
		Category:    string(entry.Category),
		AmountCents: entry.AmountCents,
		IncurredOn:  entry.IncurredOn.Format("2006-01-02"),
		Note:        entry.Note,
		CreatedAt:   entry.CreatedAt,
	}
}

func (h HandlerSet) ListCostEntries(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, offset := pagination(c)
	entries, err := h.costs.ListByUser(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list cost entries failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	resp := make([]costEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toCostEntryResponse(entry))
	}
	c.JSON(http.StatusOK, gin.H{"entries": resp})
}

func (h HandlerSet) CreateCostEntry(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req costEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incurredOn, err := time.Parse("2006-01-02", req.IncurredOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incurredOn must be YYYY-MM-DD"})
		return
	}

	entry := models.CostEntry{
		ID:          ids.New(),
		UserID:      user.ID,
		Category:    models.CostCategory(req.Category),
		AmountCents: req.AmountCents,
		IncurredOn:  incurredOn,
		Note:        req.Note,
	}
	if err := h.costs.Create(c.Request.Context(), entry); err != nil {
		h.log.Error().Err(err).Msg("create cost entry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": toCostEntryResponse(entry)})
}

func (h HandlerSet) DeleteCostEntry(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.costs.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrCostEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete cost entry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type receiptResponse struct {
	ID          string    `json:"id"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h HandlerSet) ListReceipts(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	receipts, err := h.costs.ListReceipts(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		h.log.Error().Err(err).Msg("list receipts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	resp := make([]receiptResponse, 0, len(receipts))
	for _, receipt := range receipts {
		resp = append(resp, receiptResponse{
			ID:          receipt.ID,
			ContentType: receipt.ContentType,
			SizeBytes:   receipt.SizeBytes,
			CreatedAt:   receipt.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"receipts": resp})
}

func (h HandlerSet) UploadReceipt(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	receipt, err := h.receiptService.Upload(c.Request.Context(), service.ReceiptInput{
		User:        user,
		CostEntryID: c.Param("id"),
		File:        file,
		Header:      header,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCostEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		case errors.Is(err, service.ErrUnsupportedReceiptType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_file_type"})
		default:
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("receipt upload failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"receipt": receiptResponse{
		ID:          receipt.ID,
		ContentType: receipt.ContentType,
		SizeBytes:   receipt.SizeBytes,
		CreatedAt:   receipt.CreatedAt,
	}})
}
