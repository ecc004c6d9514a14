package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"masjid-display-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type PreviewTokenRepository interface {
	Create(token *domain.PreviewToken) error
	FindByHash(tokenHash string) (*domain.PreviewToken, error)
	Revoke(id string) error
	Delete(id string) error
}

type previewTokenRepository struct {
	client *kivik.Client
	dbName string
}

func NewPreviewTokenRepository(client *kivik.Client, dbName string) PreviewTokenRepository {
	return &previewTokenRepository{
		client: client,
		dbName: dbName,
	}
}

func previewTokenDocID(id string) string {
	return fmt.Sprintf("preview_token:%s", id)
}

func (r *previewTokenRepository) Create(token *domain.PreviewToken) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(context.Background(), previewTokenDocID(token.ID), token)
	if err != nil {
		return fmt.Errorf("failed to create preview token: %w", err)
	}

	return nil
}

func (r *previewTokenRepository) FindByHash(tokenHash string) (*domain.PreviewToken, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"token_hash": tokenHash,
			"is_revoked": false,
		},
		"limit": 1,
	}

	rows := db.Find(context.Background(), query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query preview token: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	var token domain.PreviewToken
	if err := rows.ScanDoc(&token); err != nil {
		return nil, fmt.Errorf("failed to scan preview token: %w", err)
	}

	return &token, nil
}

func (r *previewTokenRepository) Revoke(id string) error {
	db := r.client.DB(r.dbName)
	docID := previewTokenDocID(id)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&rawDoc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read preview token: %w", err)
	}

	rawDoc["is_revoked"] = true
	rawDoc["revoked_at"] = time.Now()

	if _, err := db.Put(context.Background(), docID, rawDoc); err != nil {
		return fmt.Errorf("failed to revoke preview token: %w", err)
	}

	return nil
}

func (r *previewTokenRepository) Delete(id string) error {
	db := r.client.DB(r.dbName)
	docID := previewTokenDocID(id)

	row := db.Get(context.Background(), docID)
	var doc map[string]interface{}
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read preview token: %w", err)
	}

	rev, ok := doc["_rev"].(string)
	if !ok {
		return fmt.Errorf("failed to get document revision")
	}

	if _, err := db.Delete(context.Background(), docID, rev); err != nil {
		return fmt.Errorf("failed to delete preview token: %w", err)
	}

	return nil
}
