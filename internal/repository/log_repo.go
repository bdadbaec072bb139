package repository

import (
	"context"
	"fmt"

	"github.com/talavis/OrderPortal/internal/db"
	"github.com/talavis/OrderPortal/internal/models"
	"github.com/talavis/OrderPortal/internal/oxidb"
)

const LogsCollection = "_op_logs"

// LogRepo reads the audit log. Entries are written by the document
// repositories inside the same transaction as the change they record.
type LogRepo struct {
	pool *db.Pool
}

func NewLogRepo(pool *db.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) EnsureIndexes(ctx context.Context) error {
	return r.pool.Do(ctx, func(c *oxidb.Client) error {
		return c.CreateIndex(ctx, LogsCollection, "docid")
	})
}

// FindByDoc returns the log entries of a document, newest first.
func (r *LogRepo) FindByDoc(ctx context.Context, docID string) ([]models.LogEntry, error) {
	var docs []map[string]any
	err := r.pool.Do(ctx, func(c *oxidb.Client) error {
		var err error
		docs, err = c.Find(ctx, LogsCollection, map[string]any{"docid": docID}, &oxidb.FindOptions{
			Sort: map[string]any{"timestamp": -1},
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find logs of %s: %w", docID, err)
	}
	return fromDocs[models.LogEntry](LogsCollection, docs), nil
}

func insertLog(ctx context.Context, c *oxidb.Client, entry *models.LogEntry) error {
	doc, err := toDoc(entry)
	if err != nil {
		return err
	}
	_, err = c.Insert(ctx, LogsCollection, doc)
	return err
}

func deleteLogs(ctx context.Context, c *oxidb.Client, docID string) error {
	_, err := c.Delete(ctx, LogsCollection, map[string]any{"docid": docID})
	return err
}
