package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type HistoryHandler struct {
	Records repository.SyncRecordRepositoryInterface
	Log     logrus.FieldLogger
}

// ListHistory handles GET /api/sync/history?authority=&limit=.
func (hh *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid limit '"+raw+"'")
			return
		}
		limit = min(v, maxHistoryLimit)
	}

	authority := strings.TrimSpace(r.URL.Query().Get("authority"))
	resp := map[string]interface{}{}

	var err error
	if authority == "" {
		resp["records"], err = hh.Records.ListRecent(limit)
	} else {
		resp["records"], err = hh.Records.ListByAuthority(authority, limit)
		if err == nil {
			resp["last_version"], err = hh.Records.LastVersion(authority)
		}
	}
	if err != nil {
		hh.Log.WithError(err).Error("handlers: failed to list sync history")
		WriteAPIError(w, http.StatusInternalServerError, CodeStorage, "failed to list sync history")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
