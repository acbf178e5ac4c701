package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skylog/api/internal/models"
	"skylog/api/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": items})
}

func (h HandlerSet) AdminApproveUser(c *gin.Context) {
	h.adminSetStatus(c, models.UserStatusActive)
}

// AdminDisableUser also revokes every session the user holds so a
// disabled account stops being usable immediately.
func (h HandlerSet) AdminDisableUser(c *gin.Context) {
	id := c.Param("id")
	h.adminSetStatus(c, models.UserStatusDisabled)
	if c.IsAborted() || c.Writer.Status() != http.StatusNoContent {
		return
	}
	if err := h.sessions.DeleteByUser(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Str("user_id", id).Msg("revoke sessions for disabled user failed")
	}
}

func (h HandlerSet) adminSetStatus(c *gin.Context, status models.UserStatus) {
	id := c.Param("id")
	if err := h.users.UpdateStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update user status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Status(http.StatusNoContent)
}
