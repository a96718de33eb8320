package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/catalog"
)

type AlbumHandler struct {
	Catalog *catalog.Catalog
	Log     logrus.FieldLogger
}

func (ah *AlbumHandler) filterFromRequest(w http.ResponseWriter, r *http.Request) (catalog.QueryFilter, bool) {
	// album summaries ignore the limit, any positive value validates
	opts, err := parseFilterOptions(r.URL.Query(), 1, 0)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return catalog.QueryFilter{}, false
	}
	if opts.Limit <= 0 {
		opts.Limit = 1
	}
	filter, err := catalog.NewQueryFilter(opts)
	if err != nil {
		writeCatalogError(w, err)
		return catalog.QueryFilter{}, false
	}
	return filter, true
}

// ListAlbums handles GET /api/albums.
func (ah *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	filter, ok := ah.filterFromRequest(w, r)
	if !ok {
		return
	}

	albums, err := ah.Catalog.ListAlbums(r.Context(), filter)
	if err != nil {
		ah.Log.WithError(err).Error("handlers: failed to list albums")
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"albums": albums})
}

// GetFavorites handles GET /api/albums/favorites.
func (ah *AlbumHandler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	filter, ok := ah.filterFromRequest(w, r)
	if !ok {
		return
	}

	album, err := ah.Catalog.GetFavoriteAlbum(r.Context(), filter)
	if err != nil {
		ah.Log.WithError(err).Error("handlers: failed to get favorites album")
		writeCatalogError(w, err)
		return
	}
	if album == nil {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, "no favorites match the filter")
		return
	}
	writeJSON(w, http.StatusOK, album)
}
