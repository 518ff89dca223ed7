package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-client/internal/service/identity"
	"github.com/feichai0017/document-client/pkg/logger"
)

type UserHandler struct {
	users  identity.UserProvider
	logger logger.Logger
}

type UserRequest struct {
	ID string `json:"id" binding:"required"`
}

func NewUserHandler(users identity.UserProvider, logger logger.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// GetUser returns the active user id, creating one on first access.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := h.users.GetUser(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, "Failed to resolve user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// SetUser replaces the active user id.
func (h *UserHandler) SetUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, http.StatusBadRequest, "Invalid user request", err)
		return
	}

	if err := h.users.SetUser(c.Request.Context(), req.ID); err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, "Failed to set user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID})
}
