package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/stocker/internal/errors"
)

// GetValue returns the value stored under key.
// The second return is false when the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewStorageFailure(err)
	}
	return value, true, nil
}

// SetValue writes value under key, replacing any previous value.
func SetValue(ctx context.Context, db *sql.DB, key, value string) error {
	query := `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.ExecContext(ctx, query, key, value); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// DeleteValue removes key. Missing keys are not an error.
func DeleteValue(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// PutImage stores blob under id, replacing any previous image.
func PutImage(ctx context.Context, db *sql.DB, id string, blob []byte) error {
	if blob == nil {
		blob = []byte{}
	}
	query := `
		INSERT INTO images (id, blob) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET blob = excluded.blob
	`
	if _, err := db.ExecContext(ctx, query, id, blob); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// GetImage returns the image stored under id, or nil when there is none.
func GetImage(ctx context.Context, db *sql.DB, id string) ([]byte, error) {
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT blob FROM images WHERE id = ?`, id).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	if blob == nil {
		blob = []byte{}
	}
	return blob, nil
}

// DeleteImage removes the image stored under id. Missing ids are not an error.
func DeleteImage(ctx context.Context, db *sql.DB, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return errors.NewStorageFailure(err)
	}
	return nil
}

// ListImageIDs returns every id in the blob store, sorted.
func ListImageIDs(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM images ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewStorageFailure(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure(err)
	}
	return ids, nil
}
