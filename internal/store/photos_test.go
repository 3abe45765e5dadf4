package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/izposoja/internal/db"
)

func TestItemPhoto(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Camera", "")

	has, err := HasItemPhoto(ctx, database, item.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, _, err = GetItemPhoto(ctx, database, item.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetItemPhoto(ctx, database, item.ID, []byte("full"), "image/jpeg", []byte("small")))

	data, mime, err := GetItemPhoto(ctx, database, item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "full", string(data))
	assert.Equal(t, "image/jpeg", mime)

	data, _, err = GetItemPhoto(ctx, database, item.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "small", string(data))

	require.NoError(t, SetItemPhoto(ctx, database, item.ID, []byte("full2"), "image/jpeg", []byte("small2")))
	data, _, _ = GetItemPhoto(ctx, database, item.ID, false)
	assert.Equal(t, "full2", string(data), "second upload replaces the first")
}

func TestItemPhotoRemovedWithItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, "Camera", "")
	require.NoError(t, SetItemPhoto(ctx, database, item.ID, []byte("full"), "image/jpeg", []byte("small")))
	require.NoError(t, DeleteItem(ctx, database, item.ID))

	_, _, err := GetItemPhoto(ctx, database, item.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetItemPhotoMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	err := SetItemPhoto(context.Background(), database, 404, []byte("x"), "image/jpeg", []byte("y"))
	assert.ErrorIs(t, err, ErrNotFound)
}
