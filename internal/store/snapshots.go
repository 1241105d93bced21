package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/noema-ai/noema/internal/state"
)

// keepSnapshots bounds how many snapshots survive pruning.
const keepSnapshots = 20

// SaveSnapshot persists a full serialized state document and prunes
// old snapshots beyond the retention window.
func (db *DB) SaveSnapshot(doc *state.Document) error {
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}

	_, err = db.Exec(
		"INSERT INTO snapshots (version, created_at, document) VALUES (?, ?, ?)",
		doc.Version, time.Now().UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = db.Exec(`
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`, keepSnapshots)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// LoadLatestGood returns the newest snapshot that decodes and
// validates, skipping any trailing corrupt rows. Returns nil with no
// error when no usable snapshot exists.
func (db *DB) LoadLatestGood() (*state.Document, error) {
	rows, err := db.Query(
		"SELECT id, document FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?",
		keepSnapshots,
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		doc, err := state.Decode([]byte(raw))
		if err != nil {
			log.Printf("store: skipping bad snapshot %d: %v", id, err)
			continue
		}
		return doc, nil
	}
	return nil, rows.Err()
}

// SnapshotCount returns how many snapshots are stored.
func (db *DB) SnapshotCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count)
	return count, err
}

// Interaction is one processed board exchange.
type Interaction struct {
	ID        int64
	PostID    string
	Query     string
	Reply     string
	CreatedAt int64
}

// RecordInteraction stores a processed post and the reply sent for it.
// Duplicate post IDs are ignored so re-polling is idempotent.
func (db *DB) RecordInteraction(postID, query, reply string) error {
	_, err := db.Exec(`
		INSERT INTO interactions (post_id, query, reply, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(post_id) DO NOTHING
	`, postID, query, reply, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// SeenInteraction reports whether a post has already been processed.
func (db *DB) SeenInteraction(postID string) (bool, error) {
	var id int64
	err := db.QueryRow("SELECT id FROM interactions WHERE post_id = ?", postID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check interaction: %w", err)
	}
	return true, nil
}

// LastInteractionID returns the most recently processed post ID, or ""
// when none exist. Used as the polling cursor after a restart.
func (db *DB) LastInteractionID() (string, error) {
	var postID string
	err := db.QueryRow(
		"SELECT post_id FROM interactions ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&postID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last interaction: %w", err)
	}
	return postID, nil
}
