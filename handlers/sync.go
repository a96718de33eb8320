package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/models"
	"github.com/camden-git/mediapicker/workers"
)

// SyncHandler feeds sync batches from the provider sync layer into the worker queue.
type SyncHandler struct {
	Processor *workers.SyncProcessor
	// Timeout bounds how long a request waits for its batch to be applied.
	Timeout time.Duration
	Log     logrus.FieldLogger
}

type AddMediaRequest struct {
	Items []catalog.MediaItem `json:"items"`
}

type RemoveMediaRequest struct {
	IDs     []string `json:"ids"`
	Version *int64   `json:"version,omitempty"`
}

type SyncResponse struct {
	JobID     string `json:"job_id"`
	Operation string `json:"operation"`
	Authority string `json:"authority"`
	Applied   int    `json:"applied"`
}

// AddMedia handles POST /api/sync/{authority}/media.
func (sh *SyncHandler) AddMedia(w http.ResponseWriter, r *http.Request) {
	var req AddMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	job := workers.NewSyncJob(models.SyncOpAdd, authorityParam(r))
	job.Items = req.Items
	sh.run(w, r, job)
}

// RemoveMedia handles POST /api/sync/{authority}/media/remove.
func (sh *SyncHandler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	var req RemoveMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return
	}

	job := workers.NewSyncJob(models.SyncOpRemove, authorityParam(r))
	job.IDs = req.IDs
	job.Version = req.Version
	sh.run(w, r, job)
}

// ResetMedia handles POST /api/sync/{authority}/reset.
func (sh *SyncHandler) ResetMedia(w http.ResponseWriter, r *http.Request) {
	sh.run(w, r, workers.NewSyncJob(models.SyncOpReset, authorityParam(r)))
}

func authorityParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "authority"))
}

func (sh *SyncHandler) run(w http.ResponseWriter, r *http.Request, job workers.SyncJob) {
	if job.Authority == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "authority is required")
		return
	}
	// QueueJob also refuses once the processor is stopped; the server is draining by then.
	if !sh.Processor.QueueJob(job) {
		WriteAPIError(w, http.StatusTooManyRequests, CodeQueueFull, "sync queue is full or an equivalent job is pending, retry later")
		return
	}

	ctx := r.Context()
	if sh.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sh.Timeout)
		defer cancel()
	}

	res, err := workers.Wait(ctx, job)
	if err != nil {
		// the job stays queued and is still applied
		sh.Log.WithFields(logrus.Fields{"job": job.ID, "op": job.Operation}).WithError(err).
			Warn("handlers: gave up waiting for sync job")
		status := http.StatusGatewayTimeout
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		WriteAPIError(w, status, CodeTimeout, "sync job "+job.ID+" was queued but did not finish in time")
		return
	}
	if errors.Is(res.Err, workers.ErrStopped) {
		WriteAPIError(w, http.StatusServiceUnavailable, CodeShuttingDown, "server is shutting down, sync job "+job.ID+" was not applied")
		return
	}
	if res.Err != nil {
		writeCatalogError(w, res.Err)
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		JobID:     job.ID,
		Operation: job.Operation,
		Authority: job.Authority,
		Applied:   res.Applied,
	})
}
