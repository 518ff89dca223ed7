package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/document-client/internal/models"
	"github.com/feichai0017/document-client/internal/service/document"
	"github.com/feichai0017/document-client/pkg/docapi"
	"github.com/feichai0017/document-client/pkg/logger"
)

// maxWait bounds ?wait= so a request cannot pin a handler forever.
const maxWait = 5 * time.Minute

type DocumentHandler struct {
	service document.DocumentStore
	logger  logger.Logger
}

// FetchResponse reports the outcome of one fetch.
type FetchResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Subscribed bool   `json:"subscribed"`
}

// BatchRequest lists the ids of a batch fetch.
type BatchRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewDocumentHandler(service document.DocumentStore, logger logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// GetDocument returns a stored document. With fetch=true the server is asked
// first; with wait=<duration> the call blocks until the document completes.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var wait time.Duration
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			h.handleError(c, http.StatusBadRequest, "Invalid wait duration", err)
			return
		}
		wait = min(d, maxWait)
	}

	if c.Query("fetch") == "true" {
		if _, err := h.service.FetchDocument(ctx, id); err != nil {
			h.handleError(c, statusFor(err), "Failed to fetch document", err)
			return
		}
	}

	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		doc, err := h.service.WaitForDocument(waitCtx, id)
		if err != nil {
			h.handleError(c, statusFor(err), "Document did not complete", err)
			return
		}
		c.JSON(http.StatusOK, doc)
		return
	}

	doc, ok := h.service.GetDocument(id)
	if !ok {
		h.handleError(c, http.StatusNotFound, "Document not found", nil)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// FetchDocument resolves one document against the server.
func (h *DocumentHandler) FetchDocument(c *gin.Context) {
	result, err := h.service.FetchDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to fetch document", err)
		return
	}
	c.JSON(http.StatusOK, toFetchResponse(result))
}

// FetchBatch resolves several documents concurrently.
func (h *DocumentHandler) FetchBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid batch request", err)
		return
	}

	results, err := h.service.FetchDocuments(c.Request.Context(), req.IDs)
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to fetch documents", err)
		return
	}

	responses := make([]FetchResponse, len(results))
	for i, r := range results {
		responses[i] = toFetchResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   len(responses),
		"results": responses,
	})
}

// GetBriefs returns the current brief snapshot without contacting the server.
func (h *DocumentHandler) GetBriefs(c *gin.Context) {
	briefs := h.service.GetBriefs()
	if briefs == nil {
		briefs = []models.DocumentBrief{}
	}
	c.JSON(http.StatusOK, models.BriefList{Total: len(briefs), Results: briefs})
}

// RefreshBriefs replaces the brief snapshot with the server listing.
func (h *DocumentHandler) RefreshBriefs(c *gin.Context) {
	if err := h.service.FetchDocumentBriefs(c.Request.Context()); err != nil {
		h.handleError(c, statusFor(err), "Failed to refresh briefs", err)
		return
	}
	h.GetBriefs(c)
}

// GetSubscriptions lists ids with an open push channel.
func (h *DocumentHandler) GetSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subscriptions": h.service.Subscriptions()})
}

// CloseSubscriptions tears down every push channel.
func (h *DocumentHandler) CloseSubscriptions(c *gin.Context) {
	h.service.CleanupWebSockets()
	c.Status(http.StatusNoContent)
}

func toFetchResponse(r *document.FetchResult) FetchResponse {
	return FetchResponse{
		ID:         r.ID,
		Status:     string(r.Status),
		Subscribed: r.Subscribed,
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, document.ErrEmptyID):
		return http.StatusBadRequest
	case errors.Is(err, docapi.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// handleError 统一错误处理
func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	writeError(c, h.logger, status, message, err)
}

func writeError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
