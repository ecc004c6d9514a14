package repository

import (
	"context"
	"fmt"
	"net/http"

	"masjid-display-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ScheduleRepository interface {
	FindByDate(label string, month, day int) (*domain.ScheduleRow, error)
	ListByLabel(label string) ([]*domain.ScheduleRow, error)
	ListAll() ([]*domain.ScheduleRow, error)
	// DeleteByLabel removes every row for the label. Idempotent: zero
	// matching rows is not an error.
	DeleteByLabel(label string) error
	// InsertBatch writes one batch of rows. Callers are responsible for
	// slicing to the storage batch limit.
	InsertBatch(rows []*domain.ScheduleRow) error
}

type scheduleRepository struct {
	client *kivik.Client
	dbName string
}

func NewScheduleRepository(client *kivik.Client, dbName string) ScheduleRepository {
	return &scheduleRepository{
		client: client,
		dbName: dbName,
	}
}

// scheduleDocID keys a row by (label, month, day), so the store can never
// hold two rows for the same calendar date of a label.
func scheduleDocID(label string, month, day int) string {
	return fmt.Sprintf("schedule:%s:%d:%d", label, month, day)
}

// scheduleDoc carries the CouchDB document ID alongside the row on insert.
type scheduleDoc struct {
	ID string `json:"_id"`
	*domain.ScheduleRow
}

func (r *scheduleRepository) FindByDate(label string, month, day int) (*domain.ScheduleRow, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), scheduleDocID(label, month, day))

	var sched domain.ScheduleRow
	if err := row.ScanDoc(&sched); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule row: %w", err)
	}

	return &sched, nil
}

func (r *scheduleRepository) ListByLabel(label string) ([]*domain.ScheduleRow, error) {
	return r.find(map[string]interface{}{
		"label": label,
		"fajr":  map[string]interface{}{"$exists": true},
	})
}

func (r *scheduleRepository) ListAll() ([]*domain.ScheduleRow, error) {
	return r.find(map[string]interface{}{
		"label": map[string]interface{}{"$exists": true},
		"fajr":  map[string]interface{}{"$exists": true},
	})
}

func (r *scheduleRepository) find(selector map[string]interface{}) ([]*domain.ScheduleRow, error) {
	db := r.client.DB(r.dbName)

	rows := db.Find(context.Background(), map[string]interface{}{"selector": selector})
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query schedule rows: %w", err)
	}
	defer rows.Close()

	var out []*domain.ScheduleRow
	for rows.Next() {
		var sched domain.ScheduleRow
		if err := rows.ScanDoc(&sched); err != nil {
			continue // Skip malformed docs
		}
		out = append(out, &sched)
	}

	return out, nil
}

func (r *scheduleRepository) DeleteByLabel(label string) error {
	db := r.client.DB(r.dbName)

	rows := db.Find(context.Background(), map[string]interface{}{
		"selector": map[string]interface{}{
			"label": label,
			"fajr":  map[string]interface{}{"$exists": true},
		},
		"fields": []string{"_id", "_rev"},
	})
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to query schedule rows for delete: %w", err)
	}
	defer rows.Close()

	var stubs []interface{}
	for rows.Next() {
		var stub struct {
			ID  string `json:"_id"`
			Rev string `json:"_rev"`
		}
		if err := rows.ScanDoc(&stub); err != nil {
			continue
		}
		stubs = append(stubs, map[string]interface{}{
			"_id":      stub.ID,
			"_rev":     stub.Rev,
			"_deleted": true,
		})
	}

	if len(stubs) == 0 {
		return nil
	}

	results, err := db.BulkDocs(context.Background(), stubs)
	if err != nil {
		return fmt.Errorf("failed to delete schedule rows: %w", err)
	}
	for _, res := range results {
		if res.Error != nil {
			return fmt.Errorf("failed to delete schedule row %s: %w", res.ID, res.Error)
		}
	}

	return nil
}

func (r *scheduleRepository) InsertBatch(batch []*domain.ScheduleRow) error {
	if len(batch) == 0 {
		return nil
	}

	db := r.client.DB(r.dbName)

	docs := make([]interface{}, 0, len(batch))
	for _, row := range batch {
		docs = append(docs, scheduleDoc{
			ID:          scheduleDocID(row.Label, row.Month, row.Day),
			ScheduleRow: row,
		})
	}

	results, err := db.BulkDocs(context.Background(), docs)
	if err != nil {
		return fmt.Errorf("failed to insert schedule batch: %w", err)
	}
	for _, res := range results {
		if res.Error != nil {
			return fmt.Errorf("failed to insert schedule row %s: %w", res.ID, res.Error)
		}
	}

	return nil
}
