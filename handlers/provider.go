package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/repository"
)

type ProviderHandler struct {
	Catalog  *catalog.Catalog
	Settings repository.ProviderSettingRepositoryInterface
	Log      logrus.FieldLogger
}

type ProviderResponse struct {
	catalog.ProviderState
	CloudEnabled bool `json:"cloud_enabled"`
	// UpdatedAt is the unix millis of the last cloud provider change, zero if never set.
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

type SetCloudProviderRequest struct {
	Authority string `json:"authority"`
}

func (ph *ProviderHandler) respondState(w http.ResponseWriter, r *http.Request) {
	state, err := ph.Catalog.ProviderState(r.Context())
	if err != nil {
		ph.Log.WithError(err).Error("handlers: failed to read provider state")
		writeCatalogError(w, err)
		return
	}

	resp := ProviderResponse{ProviderState: state, CloudEnabled: state.CloudEnabled()}
	if ph.Settings != nil {
		setting, err := ph.Settings.Get(database.SettingCloudAuthority)
		switch {
		case err == nil:
			resp.UpdatedAt = setting.UpdatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			ph.Log.WithError(err).Warn("handlers: failed to read provider setting timestamp")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCloudProvider handles GET /api/provider/cloud.
func (ph *ProviderHandler) GetCloudProvider(w http.ResponseWriter, r *http.Request) {
	ph.respondState(w, r)
}

// SetCloudProvider handles PUT /api/provider/cloud. An empty authority disables cloud media.
func (ph *ProviderHandler) SetCloudProvider(w http.ResponseWriter, r *http.Request) {
	var req SetCloudProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := ph.Catalog.SetCloudProvider(r.Context(), req.Authority); err != nil {
		ph.Log.WithError(err).WithField("authority", req.Authority).Warn("handlers: failed to set cloud provider")
		writeCatalogError(w, err)
		return
	}
	ph.respondState(w, r)
}
