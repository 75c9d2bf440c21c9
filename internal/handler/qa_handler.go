package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/profileqa/internal/model"
	"github.com/xxxsen/profileqa/internal/pkg/errcode"
	"github.com/xxxsen/profileqa/internal/pkg/response"
)

const Version = "2.0.0"

var Features = []string{
	"Semantic chunking",
	"HTML-formatted responses",
	"MMR retrieval for diversity",
	"Streaming answers",
}

type QAHandler struct {
	qa        QAService
	formatter *AnswerFormatter
}

func NewQAHandler(qa QAService, formatter *AnswerFormatter) *QAHandler {
	if formatter == nil {
		formatter = NewAnswerFormatter("")
	}
	return &QAHandler{qa: qa, formatter: formatter}
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Question    string              `json:"question"`
	Answer      string              `json:"answer"`
	Sources     []map[string]string `json:"sources"`
	SourceCount int                 `json:"source_count"`
}

// sourceInfo exposes the section type of a retrieved chunk plus the metadata
// a client can link to.
func sourceInfo(c model.Chunk) map[string]string {
	info := map[string]string{"section_type": "unknown"}
	if c.SectionType != "" {
		info["section_type"] = string(c.SectionType)
	}
	for _, key := range []string{model.MetaProjectName, model.MetaGithubURL, model.MetaJobTitles} {
		if v, ok := c.Meta(key); ok {
			info[key] = v
		}
	}
	return info
}

func (h *QAHandler) toResponse(res *model.QueryResult) queryResponse {
	sources := make([]map[string]string, 0, len(res.Sources))
	for _, c := range res.Sources {
		sources = append(sources, sourceInfo(c))
	}
	return queryResponse{
		Question:    res.Question,
		Answer:      h.formatter.Format(res.Answer),
		Sources:     sources,
		SourceCount: len(sources),
	}
}

func (h *QAHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	res, err := h.qa.Ask(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.toResponse(res))
}

// Stream answers over server-sent events: "delta" events carry answer
// fragments and a final "sources" event carries the full response.
func (h *QAHandler) Stream(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	ctx := c.Request.Context()
	started := false
	res, err := h.qa.AskStream(ctx, req.Question, func(delta string) error {
		if !started {
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			started = true
		}
		response.Event(c, "delta", delta)
		return ctx.Err()
	})
	if err != nil {
		if !started {
			handleError(c, err)
			return
		}
		logError(c, err)
		code, msg := errorCode(err)
		response.StreamError(c, code, msg)
		return
	}
	response.Event(c, "sources", h.toResponse(res))
}

func (h *QAHandler) Root(c *gin.Context) {
	response.Success(c, gin.H{
		"status":         "running",
		"message":        "profile assistant api is active",
		"query_endpoint": "/api/v1/query",
		"ready":          h.qa.Status().Ready,
	})
}

func (h *QAHandler) Health(c *gin.Context) {
	st := h.qa.Status()
	status := "healthy"
	if !st.Ready {
		status = "starting"
	}
	response.Success(c, gin.H{
		"status":   status,
		"version":  Version,
		"features": Features,
		"index":    st,
	})
}
