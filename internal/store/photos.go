package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SetItemPhoto stores or replaces an item's photo and thumbnail.
func SetItemPhoto(ctx context.Context, db DBTX, itemID int64, image []byte, mime string, thumb []byte) error {
	if _, err := GetItem(ctx, db, itemID); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO item_photos (item_id, image, image_mime, thumb) VALUES (?, ?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET image = excluded.image,
		     image_mime = excluded.image_mime, thumb = excluded.thumb`,
		itemID, image, mime, thumb,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo, or its thumbnail when thumb is set.
// ErrNotFound means the item has no photo.
func GetItemPhoto(ctx context.Context, db DBTX, itemID int64, thumb bool) ([]byte, string, error) {
	column := "image"
	if thumb {
		column = "thumb"
	}

	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT `+column+`, image_mime FROM item_photos WHERE item_id = ?`, itemID,
	).Scan(&data, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return data, mime, nil
}

// HasItemPhoto reports whether an item has a stored photo.
func HasItemPhoto(ctx context.Context, db DBTX, itemID int64) (bool, error) {
	var ok bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM item_photos WHERE item_id = ?)`, itemID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking item photo: %w", err)
	}
	return ok, nil
}
