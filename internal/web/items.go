package web

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

// NoSuchItem is the 404 body for unknown item IDs.
const NoSuchItem = "There is no such item!!"

type itemsPage struct {
	PageData
	Items   []model.Item
	Heading string
}

type itemPage struct {
	PageData
	Item     *model.Item
	HasPhoto bool
}

type itemFormPage struct {
	PageData
	Item   *model.Item
	Name   string
	Detail string
}

type lendPage struct {
	PageData
	Item           *model.Item
	ReturnSchedule string
	Note           string
	Today          string
}

// conn returns the request-scoped connection, writing a 500 on failure.
func (s *Server) conn(w http.ResponseWriter, r *http.Request) (*sql.Conn, bool) {
	conn, err := db.Conn(r.Context())
	if err != nil {
		s.fail(w, err, "acquire connection")
		return nil, false
	}
	return conn, true
}

// fail maps a store error to a response.
func (s *Server) fail(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, NoSuchItem, http.StatusNotFound)
		return
	}
	slog.Error("failed to "+action, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// loadItem fetches the item named by the {id} path segment.
func (s *Server) loadItem(w http.ResponseWriter, r *http.Request) (*sql.Conn, *model.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, NoSuchItem, http.StatusNotFound)
		return nil, nil, false
	}

	conn, ok := s.conn(w, r)
	if !ok {
		return nil, nil, false
	}

	item, err := store.GetItem(r.Context(), conn, id)
	if err != nil {
		s.fail(w, err, "get item")
		return nil, nil, false
	}
	return conn, item, true
}

func itemPath(id int64, action string) string {
	return "/item/" + strconv.FormatInt(id, 10) + "/" + action
}

// ItemsPage handles GET /item/.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	items, err := store.ListItems(r.Context(), conn)
	if err != nil {
		s.fail(w, err, "list items")
		return
	}

	s.render(w, r, "index_item.html", &itemsPage{
		PageData: PageData{Title: "Items"},
		Items:    items,
		Heading:  "All items",
	})
}

// MyStatusPage handles GET /item/my_status.
func (s *Server) MyStatusPage(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	user := CurrentUser(r.Context())
	items, err := store.ListItemsByBorrower(r.Context(), conn, user.UserID)
	if err != nil {
		s.fail(w, err, "list borrowed items")
		return
	}

	s.render(w, r, "my_status.html", &itemsPage{
		PageData: PageData{Title: "My items"},
		Items:    items,
		Heading:  "Items borrowed by " + user.Username,
	})
}

// ItemDetailPage handles GET /item/{id}/detail_item.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	hasPhoto, err := store.HasItemPhoto(r.Context(), conn, item.ID)
	if err != nil {
		s.fail(w, err, "check item photo")
		return
	}

	s.render(w, r, "detail_item.html", &itemPage{
		PageData: PageData{Title: item.Name},
		Item:     item,
		HasPhoto: hasPhoto,
	})
}

// CreateItemPage handles GET /item/create_item.
func (s *Server) CreateItemPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "create_item.html", &itemFormPage{PageData: PageData{Title: "New item"}})
}

// CreateItemSubmit handles POST /item/create_item.
func (s *Server) CreateItemSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	detail := r.FormValue("detail")

	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	item, err := store.CreateItem(r.Context(), conn, name, detail)
	if err != nil {
		if ve, ok := store.IsValidation(err); ok {
			s.render(w, r, "create_item.html", &itemFormPage{
				PageData: PageData{Title: "New item", Error: ve.Message},
				Name:     name,
				Detail:   detail,
			})
			return
		}
		s.fail(w, err, "create item")
		return
	}

	slog.Info("item created", "id", item.ID, "name", item.Name)
	s.redirectWithFlash(w, r, "/item/", "Item "+item.Name+" added.")
}

// UpdateItemPage handles GET /item/{id}/update_item.
func (s *Server) UpdateItemPage(w http.ResponseWriter, r *http.Request) {
	_, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	s.render(w, r, "update_item.html", &itemFormPage{
		PageData: PageData{Title: "Edit " + item.Name},
		Item:     item,
		Name:     item.Name,
		Detail:   item.Detail,
	})
}

// UpdateItemSubmit handles POST /item/{id}/update_item.
func (s *Server) UpdateItemSubmit(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	name := r.FormValue("name")
	detail := r.FormValue("detail")

	if err := store.UpdateItem(r.Context(), conn, item.ID, name, detail); err != nil {
		if ve, ok := store.IsValidation(err); ok {
			s.render(w, r, "update_item.html", &itemFormPage{
				PageData: PageData{Title: "Edit " + item.Name, Error: ve.Message},
				Item:     item,
				Name:     name,
				Detail:   detail,
			})
			return
		}
		s.fail(w, err, "update item")
		return
	}

	slog.Info("item updated", "id", item.ID)
	s.redirectWithFlash(w, r, "/item/", "Changes saved.")
}

// DeleteItemPage handles GET /item/{id}/delete_item.
func (s *Server) DeleteItemPage(w http.ResponseWriter, r *http.Request) {
	_, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	s.render(w, r, "delete_item.html", &itemPage{
		PageData: PageData{Title: "Delete " + item.Name},
		Item:     item,
	})
}

// DeleteItemSubmit handles POST /item/{id}/delete_item.
func (s *Server) DeleteItemSubmit(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), conn, item.ID); err != nil {
		s.fail(w, err, "delete item")
		return
	}

	slog.Info("item deleted", "id", item.ID, "name", item.Name)
	s.redirectWithFlash(w, r, "/item/", "Item "+item.Name+" deleted.")
}

// LendItemPage handles GET /item/{id}/lend_item.
func (s *Server) LendItemPage(w http.ResponseWriter, r *http.Request) {
	_, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	s.render(w, r, "lend_item.html", &lendPage{
		PageData: PageData{Title: "Borrow " + item.Name},
		Item:     item,
		Today:    time.Now().Format(model.DateLayout),
	})
}

// LendItemSubmit handles POST /item/{id}/lend_item. The signed-in user
// becomes the borrower.
func (s *Server) LendItemSubmit(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	user := CurrentUser(r.Context())
	schedule := r.FormValue("return_schedule")
	note := r.FormValue("note")

	if err := store.LendItem(r.Context(), conn, item.ID, user.UserID, schedule, note); err != nil {
		if ve, ok := store.IsValidation(err); ok {
			s.render(w, r, "lend_item.html", &lendPage{
				PageData:       PageData{Title: "Borrow " + item.Name, Error: ve.Message},
				Item:           item,
				ReturnSchedule: schedule,
				Note:           note,
				Today:          time.Now().Format(model.DateLayout),
			})
			return
		}
		s.fail(w, err, "lend item")
		return
	}

	slog.Info("item lent", "id", item.ID, "user", user.Username, "until", schedule)
	s.redirectWithFlash(w, r, "/item/", "You borrowed "+item.Name+".")
}

// ReturnItemPage handles GET /item/{id}/return_item.
func (s *Server) ReturnItemPage(w http.ResponseWriter, r *http.Request) {
	_, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	s.render(w, r, "return_item.html", &itemPage{
		PageData: PageData{Title: "Return " + item.Name},
		Item:     item,
	})
}

// ReturnItemSubmit handles POST /item/{id}/return_item.
func (s *Server) ReturnItemSubmit(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}

	if err := store.ReturnItem(r.Context(), conn, item.ID); err != nil {
		s.fail(w, err, "return item")
		return
	}

	slog.Info("item returned", "id", item.ID, "user", CurrentUser(r.Context()).Username)
	s.redirectWithFlash(w, r, "/item/my_status", "Item "+item.Name+" returned.")
}
