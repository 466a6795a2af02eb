package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dugoutapp/dugout/internal/domain"
	"github.com/dugoutapp/dugout/internal/filter"
	"github.com/dugoutapp/dugout/internal/service"
)

func (s *Server) handleListItems(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Deep links address an item through the list URL; send the browser to
		// the item's own page so the parameter is consumed.
		if id := r.URL.Query().Get("id"); id != "" {
			http.Redirect(w, r, "/"+kind.Plural()+"/"+id, http.StatusSeeOther)
			return
		}

		criteria := parseCriteria(r)

		items, err := s.service.ListItems(r.Context(), kind)
		if err != nil {
			http.Error(w, "failed to list items", http.StatusInternalServerError)
			s.logger.Error("list items failed", "kind", kind, "error", err)
			return
		}

		data := map[string]any{
			"Kind":          kind,
			"Items":         filter.Apply(items, criteria),
			"Criteria":      criteria,
			"Teams":         s.service.Catalog().Teams,
			"Locations":     s.service.Catalog().LocationsFor(kind),
			"ShowForm":      r.URL.Query().Get("add") == "true",
			"VisionEnabled": s.service.VisionEnabled(),
			"ActiveNav":     kind.Plural(),
		}

		// Filter changes re-render only the grid.
		if isHTMX(r) {
			if err := s.renderPartial(w, "item_grid", data,
				"partials/item_grid.html", "partials/item_card.html",
			); err != nil {
				s.logger.Error("render partial failed", "error", err)
			}
			return
		}

		if err := s.renderPage(w, data,
			"base.html", "pages/items.html",
			"partials/item_grid.html", "partials/item_card.html", "partials/item_form.html",
		); err != nil {
			s.logger.Error("render page failed", "error", err)
		}
	}
}

func (s *Server) handleCreateItem(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, photo, ok := s.parseItemForm(w, r, kind)
		if !ok {
			return
		}

		_, err := s.service.CreateItem(r.Context(), input, photo)
		if err != nil {
			s.writeItemError(w, err, "create item failed", "kind", kind)
			return
		}

		redirect(w, r, "/"+kind.Plural())
	}
}

func (s *Server) handleGetItem(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := s.service.GetItem(r.Context(), r.PathValue("id"))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to get item", http.StatusInternalServerError)
			s.logger.Error("get item failed", "error", err)
			return
		}
		// The hat and jersey collections do not share a URL namespace.
		if item.Kind != kind {
			http.NotFound(w, r)
			return
		}

		data := map[string]any{
			"Kind":          kind,
			"Item":          item,
			"Teams":         s.service.Catalog().Teams,
			"Locations":     s.service.Catalog().LocationsFor(kind),
			"VisionEnabled": s.service.VisionEnabled(),
			"ActiveNav":     kind.Plural(),
		}
		if err := s.renderPage(w, data,
			"base.html", "pages/item_detail.html", "partials/item_form.html",
		); err != nil {
			s.logger.Error("render page failed", "error", err)
		}
	}
}

func (s *Server) handleUpdateItem(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, photo, ok := s.parseItemForm(w, r, kind)
		if !ok {
			return
		}

		id := r.PathValue("id")
		if _, err := s.service.UpdateItem(r.Context(), id, input, photo); err != nil {
			s.writeItemError(w, err, "update item failed", "id", id)
			return
		}

		redirect(w, r, "/"+kind.Plural()+"/"+id)
	}
}

func (s *Server) handleDeleteItem(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := s.service.DeleteItem(r.Context(), kind, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to delete item", http.StatusInternalServerError)
			s.logger.Error("delete item failed", "id", id, "error", err)
			return
		}

		redirect(w, r, "/"+kind.Plural())
	}
}

// parseItemForm reads the multipart create/update form. It writes the error
// response itself and returns ok=false when the request is malformed.
func (s *Server) parseItemForm(w http.ResponseWriter, r *http.Request, kind domain.Kind) (service.ItemInput, *service.Upload, bool) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return service.ItemInput{}, nil, false
	}

	price, err := parsePrice(r.FormValue("price_paid"))
	if err != nil {
		http.Error(w, "invalid price", http.StatusBadRequest)
		return service.ItemInput{}, nil, false
	}

	input := service.ItemInput{
		Kind:        kind,
		Team:        strings.TrimSpace(r.FormValue("team")),
		Player:      strings.TrimSpace(r.FormValue("player")),
		ColorDesign: strings.TrimSpace(r.FormValue("color_design")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		PricePaid:   price,
	}

	photo, ok := s.parsePhoto(w, r)
	if !ok {
		return service.ItemInput{}, nil, false
	}
	return input, photo, true
}

// parsePhoto extracts the optional "image" file from an already-parsed
// multipart form. A missing file is not an error; an unreadable or
// non-image file is.
func (s *Server) parsePhoto(w http.ResponseWriter, r *http.Request) (*service.Upload, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		http.Error(w, "invalid image upload", http.StatusBadRequest)
		return nil, false
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read upload failed", "error", err)
		return nil, false
	}
	if _, ok := allowedImageMIME(data); !ok {
		http.Error(w, "unsupported image format", http.StatusBadRequest)
		return nil, false
	}

	return &service.Upload{Filename: header.Filename, Reader: bytes.NewReader(data)}, true
}

// writeItemError maps service errors to HTTP responses: validation failures
// surface their message as a 400, a missing item is a 404, anything else is
// logged as a 500.
func (s *Server) writeItemError(w http.ResponseWriter, err error, msg string, args ...any) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	default:
		http.Error(w, "something went wrong", http.StatusInternalServerError)
		s.logger.Error(msg, append(args, "error", err)...)
	}
}

// parsePrice converts the optional price field. Empty means no price was
// recorded; negative prices are rejected.
func parsePrice(v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return nil, errors.New("invalid price")
	}
	return &f, nil
}
