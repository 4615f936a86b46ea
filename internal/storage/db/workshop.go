package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DonovanMods/twlm/internal/domain"
)

// SaveOnlineRecords upserts Workshop records for a game in one transaction
func (d *DB) SaveOnlineRecords(gameKey string, records []domain.OnlineRecord) (err error) {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO workshop_items (game_key, mod_id, title, creator, file_size, file_url, preview_url,
			description, time_created, time_updated, subscriptions, votes, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(game_key, mod_id) DO UPDATE SET
			title = excluded.title,
			creator = excluded.creator,
			file_size = excluded.file_size,
			file_url = excluded.file_url,
			preview_url = excluded.preview_url,
			description = excluded.description,
			time_created = excluded.time_created,
			time_updated = excluded.time_updated,
			subscriptions = excluded.subscriptions,
			votes = excluded.votes,
			fetched_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(gameKey, r.ID, r.Title, r.Creator, r.FileSize, r.FileURL, r.PreviewURL,
			r.Description, unixOrZero(r.TimeCreated), unixOrZero(r.TimeUpdated), r.Subscriptions, r.Votes); err != nil {
			return fmt.Errorf("saving workshop item %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing workshop items: %w", err)
	}
	return nil
}

// GetOnlineRecords returns cached records for the given ids. Ids that were
// never cached are simply absent from the result.
func (d *DB) GetOnlineRecords(gameKey string, ids []string) ([]domain.OnlineRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, gameKey)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := d.Query(`
		SELECT mod_id, title, creator, file_size, file_url, preview_url, description,
		       time_created, time_updated, subscriptions, votes
		FROM workshop_items
		WHERE game_key = ? AND mod_id IN (`+placeholders+`)
		ORDER BY mod_id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workshop items: %w", err)
	}
	defer rows.Close()

	var records []domain.OnlineRecord
	for rows.Next() {
		var r domain.OnlineRecord
		var creator, fileURL, previewURL, description sql.NullString
		var created, updated int64
		if err := rows.Scan(&r.ID, &r.Title, &creator, &r.FileSize, &fileURL, &previewURL, &description,
			&created, &updated, &r.Subscriptions, &r.Votes); err != nil {
			return nil, fmt.Errorf("scanning workshop item: %w", err)
		}
		r.Creator = creator.String
		r.FileURL = fileURL.String
		r.PreviewURL = previewURL.String
		r.Description = description.String
		r.TimeCreated = timeOrZero(created)
		r.TimeUpdated = timeOrZero(updated)
		records = append(records, r)
	}

	return records, rows.Err()
}

// LastUpdate returns when online metadata was last merged for a game
func (d *DB) LastUpdate(gameKey string) (time.Time, error) {
	var ts int64
	err := d.QueryRow(`SELECT last_update FROM metadata_sync WHERE game_key = ?`, gameKey).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("getting last update: %w", err)
	}
	return timeOrZero(ts), nil
}

// SetLastUpdate records when online metadata was last merged for a game
func (d *DB) SetLastUpdate(gameKey string, ts time.Time) error {
	_, err := d.Exec(`
		INSERT INTO metadata_sync (game_key, last_update) VALUES (?, ?)
		ON CONFLICT(game_key) DO UPDATE SET last_update = excluded.last_update
	`, gameKey, unixOrZero(ts))
	if err != nil {
		return fmt.Errorf("setting last update: %w", err)
	}
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeOrZero(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
