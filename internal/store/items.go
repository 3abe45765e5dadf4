package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/izposoja/internal/model"
)

const itemColumns = `i.id, i.name, i.detail, i.user_id, i.last_update, i.return_schedule, i.note, u.username`

const itemFrom = ` FROM item i LEFT JOIN users u ON u.id = i.user_id`

// CreateItem inserts a new, available item.
func CreateItem(ctx context.Context, db DBTX, name, detail string) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "Item name is required.")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO item (name, user_id, last_update, detail) VALUES (?, NULL, ?, ?)`,
		name, today(), detail,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or ErrNotFound.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, newest first.
func ListItems(ctx context.Context, db DBTX) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+itemFrom+` ORDER BY i.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListItemsByBorrower returns the items currently lent to userID, newest first.
func ListItemsByBorrower(ctx context.Context, db DBTX, userID int64) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+itemFrom+` WHERE i.user_id = ? ORDER BY i.id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing borrowed items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateItem changes an item's name and detail.
func UpdateItem(ctx context.Context, db DBTX, id int64, name, detail string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name", "Item name is required.")
	}

	if _, err := GetItem(ctx, db, id); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE item SET name = ?, last_update = ?, detail = ? WHERE id = ?`,
		name, today(), detail, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem removes an item. Lent items are deleted too.
func DeleteItem(ctx context.Context, db DBTX, id int64) error {
	if _, err := GetItem(ctx, db, id); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM item WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// LendItem records userID as the borrower until returnSchedule.
// The item's current state is not checked; lending a lent item reassigns it.
func LendItem(ctx context.Context, db DBTX, id, userID int64, returnSchedule, note string) error {
	returnSchedule = strings.TrimSpace(returnSchedule)
	if returnSchedule == "" {
		return invalid("return_schedule", "Please enter the scheduled return date.")
	}
	if _, err := time.Parse(model.DateLayout, returnSchedule); err != nil {
		return invalid("return_schedule", "The return date must look like 2006-01-02.")
	}
	if userID <= 0 {
		return invalid("user_id", "A borrower is required.")
	}

	if _, err := GetItem(ctx, db, id); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE item SET user_id = ?, last_update = ?, return_schedule = ?, note = ? WHERE id = ?`,
		userID, today(), returnSchedule, note, id,
	)
	if err != nil {
		return fmt.Errorf("lending item: %w", err)
	}
	return nil
}

// ReturnItem clears the borrower fields. Returning an available item only
// bumps last_update.
func ReturnItem(ctx context.Context, db DBTX, id int64) error {
	if _, err := GetItem(ctx, db, id); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE item SET user_id = NULL, last_update = ?, return_schedule = NULL, note = NULL WHERE id = ?`,
		today(), id,
	)
	if err != nil {
		return fmt.Errorf("returning item: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	var (
		item                           model.Item
		detail, schedule, note, holder sql.NullString
		borrower                       sql.NullInt64
	)
	if err := row.Scan(&item.ID, &item.Name, &detail, &borrower, &item.LastUpdate,
		&schedule, &note, &holder); err != nil {
		return nil, err
	}

	item.Detail = detail.String
	item.BorrowerName = holder.String
	if borrower.Valid {
		item.BorrowerID = &borrower.Int64
	}
	if schedule.Valid {
		item.ReturnSchedule = &schedule.String
	}
	if note.Valid {
		item.Note = &note.String
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
