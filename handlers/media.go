package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/database"
)

// PageCursor is the keyset position of a neighbouring page, echoed back as query params.
type PageCursor struct {
	DateTakenBeforeMs *int64 `json:"date_taken_before_ms,omitempty"`
	DateTakenAfterMs  *int64 `json:"date_taken_after_ms,omitempty"`
	ID                int64  `json:"id"`
}

type MediaPage struct {
	Items    []database.MediaRow `json:"items"`
	Next     *PageCursor         `json:"next,omitempty"`
	Previous *PageCursor         `json:"previous,omitempty"`
}

type MediaHandler struct {
	Catalog      *catalog.Catalog
	DefaultLimit int
	MaxLimit     int
	Log          logrus.FieldLogger
}

func parseOptionalInt64(values url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s '%s'", key, raw)
	}
	return &v, nil
}

// parseFilterOptions reads the media query parameters shared by media and album routes.
func parseFilterOptions(values url.Values, defaultLimit, maxLimit int) (catalog.FilterOptions, error) {
	opts := catalog.FilterOptions{
		Limit:    defaultLimit,
		MimeType: strings.TrimSpace(values.Get("mime_type")),
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid limit '%s'", raw)
		}
		opts.Limit = limit
	}
	if maxLimit > 0 && opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}

	var err error
	if opts.DateTakenBeforeMs, err = parseOptionalInt64(values, "date_taken_before_ms"); err != nil {
		return opts, err
	}
	if opts.DateTakenAfterMs, err = parseOptionalInt64(values, "date_taken_after_ms"); err != nil {
		return opts, err
	}
	if opts.ID, err = parseOptionalInt64(values, "id"); err != nil {
		return opts, err
	}
	if opts.SizeBytes, err = parseOptionalInt64(values, "size_bytes"); err != nil {
		return opts, err
	}

	if raw := strings.TrimSpace(values.Get("is_favorite")); raw != "" {
		fav, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("invalid is_favorite '%s'", raw)
		}
		opts.IsFavorite = fav
	}
	return opts, nil
}

func (mh *MediaHandler) filterFromRequest(w http.ResponseWriter, r *http.Request) (catalog.QueryFilter, bool) {
	opts, err := parseFilterOptions(r.URL.Query(), mh.DefaultLimit, mh.MaxLimit)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return catalog.QueryFilter{}, false
	}
	filter, err := catalog.NewQueryFilter(opts)
	if err != nil {
		writeCatalogError(w, err)
		return catalog.QueryFilter{}, false
	}
	return filter, true
}

// ListMedia handles GET /api/media.
func (mh *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	filter, ok := mh.filterFromRequest(w, r)
	if !ok {
		return
	}

	rows, err := mh.Catalog.ListMedia(r.Context(), filter)
	if err != nil {
		mh.Log.WithError(err).Error("handlers: failed to list media")
		writeCatalogError(w, err)
		return
	}

	page := MediaPage{Items: rows}
	if len(rows) > 0 {
		first, last := rows[0], rows[len(rows)-1]
		if len(rows) == filter.Limit() {
			page.Next = &PageCursor{DateTakenBeforeMs: catalog.Int64(last.DateTakenMs), ID: last.ID}
		}
		page.Previous = &PageCursor{DateTakenAfterMs: catalog.Int64(first.DateTakenMs), ID: first.ID}
	}
	writeJSON(w, http.StatusOK, page)
}
