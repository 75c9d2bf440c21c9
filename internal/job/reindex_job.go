package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// ReindexJob reloads the profile document and rebuilds the retrieval index.
type ReindexJob struct {
	svc Reindexer
}

func NewReindexJob(svc Reindexer) *ReindexJob {
	return &ReindexJob{svc: svc}
}

func (j *ReindexJob) Name() string {
	return "reindex"
}

func (j *ReindexJob) Run(ctx context.Context) error {
	if j.svc == nil {
		return nil
	}
	count, err := j.svc.Reindex(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("scheduled reindex done", zap.Int("chunks", count))
	return nil
}
