package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
)

// pinClock fixes the store clock for the duration of the test.
func pinClock(t *testing.T, day string) {
	t.Helper()
	ts, err := time.ParseInLocation(model.DateLayout, day, time.Local)
	require.NoError(t, err)
	now = func() time.Time { return ts.Add(10 * time.Hour) }
	t.Cleanup(func() { now = time.Now })
}

func newUser(t *testing.T, database *sql.DB, name string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, name, "hash")
	require.NoError(t, err)
	return u
}

func countItems(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM item`).Scan(&n))
	return n
}

func TestCreateItemStartsAvailable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	pinClock(t, "2024-01-02")

	item, err := CreateItem(ctx, database, "Stapler", "red")
	require.NoError(t, err)

	assert.Equal(t, "Stapler", item.Name)
	assert.Equal(t, "red", item.Detail)
	assert.Nil(t, item.BorrowerID)
	assert.Nil(t, item.ReturnSchedule)
	assert.Nil(t, item.Note)
	assert.Equal(t, "2024-01-02", item.LastUpdate)
	assert.Equal(t, model.StateAvailable, item.State())
}

func TestCreateItemTodayIsCurrentDate(t *testing.T) {
	database := db.NewTestDB(t)

	item, err := CreateItem(context.Background(), database, "Projector", "")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format(model.DateLayout), item.LastUpdate)
}

func TestCreateItemRequiresName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := CreateItem(ctx, database, name, "detail")
		ve, ok := IsValidation(err)
		require.True(t, ok, "name %q: expected ValidationError, got %v", name, err)
		assert.Equal(t, "name", ve.Field)
	}

	assert.Equal(t, 0, countItems(t, database), "no row may be inserted")
}

func TestGetItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetItem(context.Background(), database, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListItemsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateItem(ctx, database, "First", "")
	second, _ := CreateItem(ctx, database, "Second", "")
	third, _ := CreateItem(ctx, database, "Third", "")

	items, err := ListItems(ctx, database)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{items[0].ID, items[1].ID, items[2].ID})
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pinClock(t, "2024-01-02")
	item, _ := CreateItem(ctx, database, "Stapler", "red")

	pinClock(t, "2024-01-05")
	require.NoError(t, UpdateItem(ctx, database, item.ID, "Big stapler", "blue"))

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big stapler", got.Name)
	assert.Equal(t, "blue", got.Detail)
	assert.Equal(t, "2024-01-05", got.LastUpdate)
}

func TestUpdateItemValidation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Stapler", "red")

	err := UpdateItem(ctx, database, item.ID, "", "blue")
	_, ok := IsValidation(err)
	require.True(t, ok, "expected ValidationError, got %v", err)

	got, _ := GetItem(ctx, database, item.ID)
	assert.Equal(t, "Stapler", got.Name)
	assert.Equal(t, "red", got.Detail)

	assert.ErrorIs(t, UpdateItem(ctx, database, 999, "Ghost", ""), ErrNotFound)
}

func TestLendItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")

	pinClock(t, "2024-01-02")
	item, _ := CreateItem(ctx, database, "Stapler", "red")

	pinClock(t, "2024-01-03")
	require.NoError(t, LendItem(ctx, database, item.ID, u1.ID, "2024-01-10", "for the exam"))

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BorrowerID)
	assert.Equal(t, u1.ID, *got.BorrowerID)
	assert.Equal(t, "u1", got.BorrowerName)
	require.NotNil(t, got.ReturnSchedule)
	assert.Equal(t, "2024-01-10", *got.ReturnSchedule)
	require.NotNil(t, got.Note)
	assert.Equal(t, "for the exam", *got.Note)
	assert.Equal(t, "2024-01-03", got.LastUpdate)
	assert.Equal(t, model.StateLent, got.State())
}

func TestLendItemRequiresSchedule(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")

	pinClock(t, "2024-01-02")
	item, _ := CreateItem(ctx, database, "Stapler", "red")
	before, _ := GetItem(ctx, database, item.ID)

	pinClock(t, "2024-01-03")
	for _, schedule := range []string{"", "  ", "next week"} {
		err := LendItem(ctx, database, item.ID, u1.ID, schedule, "note")
		ve, ok := IsValidation(err)
		require.True(t, ok, "schedule %q: expected ValidationError, got %v", schedule, err)
		assert.Equal(t, "return_schedule", ve.Field)
	}

	after, _ := GetItem(ctx, database, item.ID)
	assert.Equal(t, before, after, "row must be unchanged")
}

func TestLendItemNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	u1 := newUser(t, database, "u1")

	err := LendItem(context.Background(), database, 999, u1.ID, "2024-01-10", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLendThenReturnClearsBorrowerFields(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")

	pinClock(t, "2024-01-02")
	item, _ := CreateItem(ctx, database, "Stapler", "red")
	require.NoError(t, LendItem(ctx, database, item.ID, u1.ID, "2024-01-10", "note"))

	pinClock(t, "2024-01-08")
	require.NoError(t, ReturnItem(ctx, database, item.ID))

	got, err := GetItem(ctx, database, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.BorrowerID)
	assert.Nil(t, got.ReturnSchedule)
	assert.Nil(t, got.Note)
	assert.Empty(t, got.BorrowerName)
	assert.Equal(t, "2024-01-08", got.LastUpdate)
	assert.Equal(t, model.StateAvailable, got.State())
}

func TestReturnAvailableItemOnlyTouchesLastUpdate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	pinClock(t, "2024-01-02")
	item, _ := CreateItem(ctx, database, "Stapler", "red")

	pinClock(t, "2024-01-04")
	require.NoError(t, ReturnItem(ctx, database, item.ID))

	got, _ := GetItem(ctx, database, item.ID)
	assert.Nil(t, got.BorrowerID)
	assert.Equal(t, "2024-01-04", got.LastUpdate)

	assert.ErrorIs(t, ReturnItem(ctx, database, 999), ErrNotFound)
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Stapler", "")
	require.NoError(t, DeleteItem(ctx, database, item.ID))

	_, err := GetItem(ctx, database, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, DeleteItem(ctx, database, item.ID), ErrNotFound)
}

func TestDeleteLentItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")

	item, _ := CreateItem(ctx, database, "Stapler", "")
	require.NoError(t, LendItem(ctx, database, item.ID, u1.ID, "2024-01-10", ""))

	require.NoError(t, DeleteItem(ctx, database, item.ID))
	_, err := GetItem(ctx, database, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, countItems(t, database))
}

func TestStaplerScenario(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")

	CreateItem(ctx, database, "Older item", "")
	stapler, err := CreateItem(ctx, database, "Stapler", "red")
	require.NoError(t, err)

	all, err := ListItems(ctx, database)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, stapler.ID, all[0].ID, "new item should head the list")

	mine, err := ListItemsByBorrower(ctx, database, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, LendItem(ctx, database, stapler.ID, u1.ID, "2024-01-10", ""))
	mine, err = ListItemsByBorrower(ctx, database, u1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, stapler.ID, mine[0].ID)

	require.NoError(t, ReturnItem(ctx, database, stapler.ID))
	mine, err = ListItemsByBorrower(ctx, database, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	got, _ := GetItem(ctx, database, stapler.ID)
	assert.Nil(t, got.BorrowerID)
}

func TestListItemsByBorrowerOnlyThatUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	u1 := newUser(t, database, "u1")
	u2 := newUser(t, database, "u2")

	a, _ := CreateItem(ctx, database, "A", "")
	b, _ := CreateItem(ctx, database, "B", "")
	c, _ := CreateItem(ctx, database, "C", "")
	LendItem(ctx, database, a.ID, u1.ID, "2024-01-10", "")
	LendItem(ctx, database, b.ID, u2.ID, "2024-01-10", "")
	LendItem(ctx, database, c.ID, u1.ID, "2024-01-11", "")

	mine, err := ListItemsByBorrower(ctx, database, u1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, c.ID, mine[0].ID)
	assert.Equal(t, a.ID, mine[1].ID)
}
