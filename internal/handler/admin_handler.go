package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/profileqa/internal/middleware"
	"github.com/xxxsen/profileqa/internal/pkg/errcode"
	"github.com/xxxsen/profileqa/internal/pkg/response"
)

type AdminHandler struct {
	qa QAService
}

func NewAdminHandler(qa QAService) *AdminHandler {
	return &AdminHandler{qa: qa}
}

func (h *AdminHandler) Reindex(c *gin.Context) {
	n, err := h.qa.Reindex(c.Request.Context())
	if err != nil {
		logError(c, err)
		response.Error(c, errcode.ErrReindexFailed, "reindex failed")
		return
	}
	subject, _ := c.Get(middleware.ContextSubjectKey)
	logutil.GetLogger(c.Request.Context()).Info("reindex requested", zap.Any("subject", subject), zap.Int("chunks", n))
	response.Success(c, gin.H{"chunks": n})
}

func (h *AdminHandler) Chunks(c *gin.Context) {
	chunks := h.qa.Chunks()
	response.Success(c, gin.H{"chunks": chunks, "count": len(chunks)})
}
