package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/ai"
	"github.com/tohfas/RAG-Access-Control/internal/pkg/errcode"
	appErr "github.com/tohfas/RAG-Access-Control/internal/pkg/errors"
	"github.com/tohfas/RAG-Access-Control/internal/pkg/response"
)

// Fatal pipeline errors carry a non-success HTTP status so that a transport
// client can tell them apart from an answered-but-empty query; everything a
// user can fix themselves stays a plain error envelope.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("query failed",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsInvalid(err):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case appErr.IsConfiguration(err):
		response.Fail(c, http.StatusInternalServerError, errcode.ErrConfiguration, "access registry unavailable")
	case errors.Is(err, ai.ErrUnavailable):
		response.Fail(c, http.StatusBadGateway, errcode.ErrAIUnavailable, "ai provider not configured")
	case appErr.IsGeneration(err):
		response.Fail(c, http.StatusBadGateway, errcode.ErrGenerationFailed, "answer generation failed")
	default:
		response.Fail(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
