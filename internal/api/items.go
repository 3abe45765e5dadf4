package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct{}

type itemRequest struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

type lendRequest struct {
	ReturnSchedule string `json:"return_schedule"`
	Note           string `json:"note"`
}

type itemResponse struct {
	model.Item
	State model.ItemState `json:"state"`
}

func toResponse(item *model.Item) itemResponse {
	return itemResponse{Item: *item, State: item.State()}
}

func toResponses(items []model.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	items, err := store.ListItems(r.Context(), conn)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	jsonResponse(w, http.StatusOK, toResponses(items))
}

// Mine handles GET /api/items/mine.
func (h *ItemsHandler) Mine(w http.ResponseWriter, r *http.Request) {
	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	items, err := store.ListItemsByBorrower(r.Context(), conn, GetClaims(r.Context()).UserID)
	if err != nil {
		storeError(w, err, "list borrowed items")
		return
	}
	jsonResponse(w, http.StatusOK, toResponses(items))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	item, err := store.CreateItem(r.Context(), conn, req.Name, req.Detail)
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	slog.Info("item created", "id", item.ID, "user", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusCreated, toResponse(item))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	item, err := store.GetItem(r.Context(), conn, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	jsonResponse(w, http.StatusOK, toResponse(item))
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutate(w, r, "update item", id, func(conn store.DBTX) error {
		return store.UpdateItem(r.Context(), conn, id, req.Name, req.Detail)
	})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	if err := store.DeleteItem(r.Context(), conn, id); err != nil {
		storeError(w, err, "delete item")
		return
	}

	slog.Info("item deleted", "id", id, "user", GetClaims(r.Context()).Username)
	w.WriteHeader(http.StatusNoContent)
}

// Lend handles POST /api/items/{id}/lend. The caller becomes the borrower.
func (h *ItemsHandler) Lend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req lendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := GetClaims(r.Context()).UserID
	h.mutate(w, r, "lend item", id, func(conn store.DBTX) error {
		return store.LendItem(r.Context(), conn, id, userID, req.ReturnSchedule, req.Note)
	})
}

// Return handles POST /api/items/{id}/return.
func (h *ItemsHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	h.mutate(w, r, "return item", id, func(conn store.DBTX) error {
		return store.ReturnItem(r.Context(), conn, id)
	})
}

// mutate runs fn on the request connection and responds with the updated item.
func (h *ItemsHandler) mutate(w http.ResponseWriter, r *http.Request, action string, id int64, fn func(store.DBTX) error) {
	conn, err := db.Conn(r.Context())
	if err != nil {
		storeError(w, err, "acquire connection")
		return
	}

	if err := fn(conn); err != nil {
		storeError(w, err, action)
		return
	}

	item, err := store.GetItem(r.Context(), conn, id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}

	slog.Info(action, "id", id, "user", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, toResponse(item))
}
