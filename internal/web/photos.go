package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/izposoja/internal/imaging"
	"github.com/erazemk/izposoja/internal/store"
)

// ItemPhotoGet handles GET /item/{id}/photo. Pass ?size=thumb for the
// thumbnail rendition.
func (s *Server) ItemPhotoGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	conn, ok := s.conn(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetItemPhoto(r.Context(), conn, id, r.URL.Query().Get("size") == "thumb")
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, err, "get item photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo response", "error", err)
	}
}

// ItemPhotoSubmit handles POST /item/{id}/photo.
func (s *Server) ItemPhotoSubmit(w http.ResponseWriter, r *http.Request) {
	conn, item, ok := s.loadItem(w, r)
	if !ok {
		return
	}
	detail := itemPath(item.ID, "detail_item")

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		s.setFlash(w, flashError, "The photo is too large.")
		http.Redirect(w, r, detail, http.StatusSeeOther)
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		s.setFlash(w, flashError, "Please choose a photo to upload.")
		http.Redirect(w, r, detail, http.StatusSeeOther)
		return
	}
	defer file.Close()

	photo, err := imaging.Prepare(file)
	if err != nil {
		msg := "Only JPEG and PNG photos are supported."
		if errors.Is(err, imaging.ErrTooLarge) {
			msg = "The photo is too large."
		}
		s.setFlash(w, flashError, msg)
		http.Redirect(w, r, detail, http.StatusSeeOther)
		return
	}

	if err := store.SetItemPhoto(r.Context(), conn, item.ID, photo.Data, photo.MIME, photo.Thumb); err != nil {
		s.fail(w, err, "save item photo")
		return
	}

	slog.Info("item photo updated", "id", item.ID, "bytes", len(photo.Data))
	s.redirectWithFlash(w, r, detail, "Photo saved.")
}
