package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/profileqa/internal/middleware"
	"github.com/xxxsen/profileqa/internal/model"
	appErr "github.com/xxxsen/profileqa/internal/pkg/errors"
	"github.com/xxxsen/profileqa/internal/pkg/errcode"
	"github.com/xxxsen/profileqa/internal/pkg/response"
)

// QAService is what the handlers need from the question answering service.
type QAService interface {
	Ask(ctx context.Context, question string) (*model.QueryResult, error)
	AskStream(ctx context.Context, question string, onDelta func(string) error) (*model.QueryResult, error)
	Reindex(ctx context.Context) (int, error)
	Status() model.IndexStatus
	Chunks() []model.Chunk
}

// errorCode maps a service error onto a response code and a client message.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, err.Error()
	case errors.Is(err, appErr.ErrNotReady):
		return errcode.ErrNotReady, "index not ready"
	case errors.Is(err, appErr.ErrUnavailable):
		return errcode.ErrAIUnavailable, "ai not configured"
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound, "not found"
	case errors.Is(err, appErr.ErrUnauthorized):
		return errcode.ErrUnauthorized, "unauthorized"
	case errors.Is(err, appErr.ErrTooMany):
		return errcode.ErrTooMany, "too many requests"
	case errors.Is(err, context.DeadlineExceeded):
		return errcode.ErrAIUnavailable, "ai request timed out"
	default:
		return errcode.ErrInternal, "internal error"
	}
}

func logError(c *gin.Context, err error) {
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logError(c, err)
	code, msg := errorCode(err)
	response.Error(c, code, msg)
}
