package archive

import (
	"context"
	"time"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type RecordStore interface {
	Save(ctx context.Context, r Record) error
	Recent(ctx context.Context, limit int) ([]Record, error)
}

type RecordIndex interface {
	Put(ctx context.Context, r Record) error
	Search(ctx context.Context, text string, limit int) ([]Record, error)
}

// Archive writes Done runs to the store and, when configured, the index.
type Archive struct {
	store  RecordStore
	index  RecordIndex
	limit  int
	logger Logger
	now    func() time.Time
}

// New builds an archive. index may be nil.
func New(store RecordStore, index RecordIndex, limit int, log Logger) *Archive {
	if limit <= 0 {
		limit = 20
	}
	return &Archive{
		store:  store,
		index:  index,
		limit:  limit,
		logger: log.With(map[string]interface{}{"component": "archive"}),
		now:    time.Now,
	}
}

func (a *Archive) Save(ctx context.Context, s *models.GenerationSession) error {
	r := FromSession(s, a.now())

	if err := a.store.Save(ctx, r); err != nil {
		return apperrors.NewArchiveWriteFailedError(err)
	}
	if a.index != nil {
		if err := a.index.Put(ctx, r); err != nil {
			return apperrors.NewArchiveWriteFailedError(err)
		}
	}

	a.logger.Info("run archived", map[string]interface{}{
		"recordId":  r.ID,
		"sessionId": r.SessionID,
		"brand":     r.Brand,
		"model":     r.Model,
	})
	return nil
}

// History returns recent runs, or full-text matches when text is set and an index exists.
func (a *Archive) History(ctx context.Context, text string) ([]Record, error) {
	if text != "" && a.index != nil {
		return a.index.Search(ctx, text, a.limit)
	}
	return a.store.Recent(ctx, a.limit)
}
