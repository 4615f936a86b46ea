package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StoredKey is a web API key saved for an online source
type StoredKey struct {
	SourceID  string
	APIKey    string
	UpdatedAt time.Time
}

// SaveAPIKey saves or replaces the API key for a source
func (d *DB) SaveAPIKey(sourceID, apiKey string) error {
	_, err := d.Exec(`
		INSERT INTO api_keys (source_id, api_key, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_id) DO UPDATE SET
			api_key = excluded.api_key,
			updated_at = CURRENT_TIMESTAMP
	`, sourceID, apiKey)
	if err != nil {
		return fmt.Errorf("saving api key: %w", err)
	}
	return nil
}

// GetAPIKey returns the stored key for a source, or nil when none is stored
func (d *DB) GetAPIKey(sourceID string) (*StoredKey, error) {
	var key StoredKey
	err := d.QueryRow(`
		SELECT source_id, api_key, updated_at FROM api_keys WHERE source_id = ?
	`, sourceID).Scan(&key.SourceID, &key.APIKey, &key.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting api key: %w", err)
	}
	return &key, nil
}

// DeleteAPIKey removes the key for a source
func (d *DB) DeleteAPIKey(sourceID string) error {
	if _, err := d.Exec("DELETE FROM api_keys WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	return nil
}
