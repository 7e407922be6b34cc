package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tohfas/RAG-Access-Control/internal/model"
	"github.com/tohfas/RAG-Access-Control/internal/pkg/errcode"
	"github.com/tohfas/RAG-Access-Control/internal/pkg/response"
	"github.com/tohfas/RAG-Access-Control/internal/service"
)

type QueryHandler struct {
	queries *service.QueryService
}

func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	resp, err := h.queries.Query(c.Request.Context(), req.Email, req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *QueryHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
