package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"masjid-display-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type DeviceRepository interface {
	Create(record *domain.DeviceRecord) error
	FindByPair(deviceID, displayID string) (*domain.DeviceRecord, error)
	List() ([]*domain.DeviceRecord, error)
	UpdateLastSeen(deviceID, displayID string) error
	UpdateStatus(deviceID, displayID, status string) error
	UpdateMetadata(deviceID, displayID, deviceName, userAgent, screenResolution string) error
	Delete(deviceID, displayID string) error
}

type deviceRepository struct {
	client *kivik.Client
	dbName string
}

func NewDeviceRepository(client *kivik.Client, dbName string) DeviceRepository {
	return &deviceRepository{
		client: client,
		dbName: dbName,
	}
}

// deviceDocID makes pair uniqueness a property of the document key:
// CouchDB itself refuses a second record for the same (device, display).
func deviceDocID(deviceID, displayID string) string {
	return fmt.Sprintf("device:%s:%s", deviceID, displayID)
}

func (r *deviceRepository) Create(record *domain.DeviceRecord) error {
	db := r.client.DB(r.dbName)

	docID := deviceDocID(record.DeviceID, record.DisplayID)
	_, err := db.Put(context.Background(), docID, record)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrConflict
		}
		return fmt.Errorf("failed to create device record: %w", err)
	}

	return nil
}

func (r *deviceRepository) FindByPair(deviceID, displayID string) (*domain.DeviceRecord, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), deviceDocID(deviceID, displayID))

	var record domain.DeviceRecord
	if err := row.ScanDoc(&record); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find device record: %w", err)
	}

	return &record, nil
}

func (r *deviceRepository) List() ([]*domain.DeviceRecord, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"display_id": map[string]interface{}{"$exists": true},
			"status": map[string]interface{}{"$in": []string{
				domain.StatusPending,
				domain.StatusAuthorized,
				domain.StatusRejected,
			}},
		},
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list device records: %w", err)
	}
	defer rows.Close()

	var records []*domain.DeviceRecord
	for rows.Next() {
		var record domain.DeviceRecord
		if err := rows.ScanDoc(&record); err != nil {
			continue // Skip malformed docs
		}
		records = append(records, &record)
	}

	return records, nil
}

func (r *deviceRepository) UpdateLastSeen(deviceID, displayID string) error {
	return r.patch(deviceID, displayID, func(doc map[string]interface{}) {
		doc["last_seen_at"] = time.Now()
	})
}

func (r *deviceRepository) UpdateStatus(deviceID, displayID, status string) error {
	return r.patch(deviceID, displayID, func(doc map[string]interface{}) {
		doc["status"] = status
	})
}

func (r *deviceRepository) UpdateMetadata(deviceID, displayID, deviceName, userAgent, screenResolution string) error {
	return r.patch(deviceID, displayID, func(doc map[string]interface{}) {
		if deviceName != "" {
			doc["device_name"] = deviceName
		}
		if userAgent != "" {
			doc["user_agent"] = userAgent
		}
		if screenResolution != "" {
			doc["screen_resolution"] = screenResolution
		}
		doc["last_seen_at"] = time.Now()
	})
}

// patch reads the raw document (keeping _rev) and writes it back mutated.
func (r *deviceRepository) patch(deviceID, displayID string, mutate func(doc map[string]interface{})) error {
	db := r.client.DB(r.dbName)
	docID := deviceDocID(deviceID, displayID)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&rawDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read device record: %w", err)
	}

	mutate(rawDoc)

	if _, err := db.Put(context.Background(), docID, rawDoc); err != nil {
		return fmt.Errorf("failed to update device record: %w", err)
	}

	return nil
}

func (r *deviceRepository) Delete(deviceID, displayID string) error {
	db := r.client.DB(r.dbName)
	docID := deviceDocID(deviceID, displayID)

	row := db.Get(context.Background(), docID)
	var doc map[string]interface{}
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read device record: %w", err)
	}

	rev, ok := doc["_rev"].(string)
	if !ok {
		return fmt.Errorf("failed to get document revision")
	}

	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete device record: %w", err)
	}

	return nil
}
