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
)

type checklistResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type checklistItemPayload struct {
	Text string `json:"text" binding:"required"`
	Done bool   `json:"done"`
}

type checklistItemResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Text     string `json:"text"`
	Done     bool   `json:"done"`
}

func (h HandlerSet) ListChecklists(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	checklists, err := h.checklists.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("list checklists failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	resp := make([]checklistResponse, 0, len(checklists))
	for _, checklist := range checklists {
		resp = append(resp, checklistResponse{
			ID:        checklist.ID,
			Name:      checklist.Name,
			CreatedAt: checklist.CreatedAt,
			UpdatedAt: checklist.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"checklists": resp})
}

type checklistRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h HandlerSet) CreateChecklist(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req checklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checklist := models.Checklist{
		ID:     ids.New(),
		UserID: user.ID,
		Name:   req.Name,
	}
	if err := h.checklists.Create(c.Request.Context(), checklist); err != nil {
		h.log.Error().Err(err).Msg("create checklist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"checklist": checklistResponse{
		ID:   checklist.ID,
		Name: checklist.Name,
	}})
}

func (h HandlerSet) GetChecklist(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	checklist, err := h.checklists.GetByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrChecklistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("get checklist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	items, err := h.checklists.ListItems(c.Request.Context(), checklist.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("list checklist items failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	itemResp := make([]checklistItemResponse, 0, len(items))
	for _, item := range items {
		itemResp = append(itemResp, checklistItemResponse{
			ID:       item.ID,
			Position: item.Position,
			Text:     item.Text,
			Done:     item.Done,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"checklist": checklistResponse{
			ID:        checklist.ID,
			Name:      checklist.Name,
			CreatedAt: checklist.CreatedAt,
			UpdatedAt: checklist.UpdatedAt,
		},
		"items": itemResp,
	})
}

func (h HandlerSet) RenameChecklist(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req checklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.checklists.Rename(c.Request.Context(), user.ID, c.Param("id"), req.Name); err != nil {
		if errors.Is(err, repository.ErrChecklistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("rename checklist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) DeleteChecklist(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.checklists.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrChecklistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete checklist failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}

type replaceItemsRequest struct {
	Items []checklistItemPayload `json:"items" binding:"required"`
}

func (h HandlerSet) ReplaceChecklistItems(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checklistID := c.Param("id")
	items := make([]models.ChecklistItem, 0, len(req.Items))
	for i, payload := range req.Items {
		items = append(items, models.ChecklistItem{
			ID:          ids.New(),
			ChecklistID: checklistID,
			Position:    i,
			Text:        payload.Text,
			Done:        payload.Done,
		})
	}

	if err := h.checklists.ReplaceItems(c.Request.Context(), user.ID, checklistID, items); err != nil {
		if errors.Is(err, repository.ErrChecklistNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("replace checklist items failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}
