package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/database"
	"github.com/camden-git/mediapicker/logging"
	"github.com/camden-git/mediapicker/models"
	"github.com/camden-git/mediapicker/repository"
	"github.com/camden-git/mediapicker/workers"
)

const (
	testLocal = "com.local.provider"
	testCloud = "com.cloud.provider"
	testDate  = int64(1623852851911)
)

type testServer struct {
	catalog *catalog.Catalog
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logging.Discard()

	db, err := database.InitDB(filepath.Join(t.TempDir(), "picker.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := database.InitGormDB(db, log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(gormDB))
	records := repository.NewSyncRecordRepository(gormDB)

	cat, err := catalog.New(db, catalog.Options{LocalAuthority: testLocal, SyncLog: records, Logger: log})
	require.NoError(t, err)
	require.NoError(t, cat.SetCloudProvider(context.Background(), testCloud))

	proc := workers.NewSyncProcessor(cat, log, 8, 1)
	t.Cleanup(proc.Stop)

	rt := &Router{
		Media:    &MediaHandler{Catalog: cat, DefaultLimit: 100, MaxLimit: 3, Log: log},
		Albums:   &AlbumHandler{Catalog: cat, Log: log},
		Sync:     &SyncHandler{Processor: proc, Timeout: 5 * time.Second, Log: log},
		Provider: &ProviderHandler{Catalog: cat, Settings: repository.NewProviderSettingRepository(gormDB), Log: log},
		History:  &HistoryHandler{Records: records, Log: log},
	}
	return &testServer{catalog: cat, handler: rt.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode[APIErrorResponse](t, rec)
	require.Len(t, resp.Errors, 1)
	return resp.Errors[0].Code
}

func item(id, link string, taken int64, favorite bool) catalog.MediaItem {
	return catalog.MediaItem{
		SourceID:    id,
		LocalLinkID: link,
		DateTakenMs: catalog.Int64(taken),
		SizeBytes:   10,
		MimeType:    "image/jpeg",
		IsFavorite:  favorite,
	}
}

func (ts *testServer) add(t *testing.T, authority string, items ...catalog.MediaItem) SyncResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/sync/"+authority+"/media", AddMediaRequest{Items: items})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[SyncResponse](t, rec)
}

func TestSyncAndListMedia(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.add(t, testLocal, item("1", "", testDate, false), item("2", "", testDate-1, true))
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, models.SyncOpAdd, resp.Operation)
	assert.NotEmpty(t, resp.JobID)
	ts.add(t, testCloud, item("c1", "1", testDate+5, false), item("c2", "", testDate-2, false))

	rec := ts.do(t, http.MethodGet, "/api/media?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[MediaPage](t, rec)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "1", page.Items[0].SourceID)
	assert.Equal(t, "2", page.Items[1].SourceID)
	require.NotNil(t, page.Next)
	assert.Equal(t, testDate-1, *page.Next.DateTakenBeforeMs)

	rec = ts.do(t, http.MethodGet, "/api/media?limit=2&date_taken_before_ms="+itoa(*page.Next.DateTakenBeforeMs)+"&id="+itoa(page.Next.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[MediaPage](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c2", page.Items[0].SourceID)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)

	rec = ts.do(t, http.MethodGet, "/api/media?date_taken_after_ms="+itoa(*page.Previous.DateTakenAfterMs)+"&id="+itoa(page.Previous.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[MediaPage](t, rec)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "1", page.Items[0].SourceID)

	rec = ts.do(t, http.MethodGet, "/api/media?is_favorite=true", nil)
	page = decode[MediaPage](t, rec)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2", page.Items[0].SourceID)
}

func TestListMedia_LimitClampedToMax(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 5; i++ {
		ts.add(t, testLocal, item(itoa(int64(i)), "", testDate+int64(i), false))
	}

	page := decode[MediaPage](t, ts.do(t, http.MethodGet, "/api/media?limit=50", nil))
	assert.Len(t, page.Items, 3)
	assert.NotNil(t, page.Next)
}

func TestListMedia_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/media?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/media?date_taken_before_ms=1&date_taken_after_ms=2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidFilter, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/media?id=4", nil)
	assert.Equal(t, CodeInvalidFilter, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/media?limit=0", nil)
	assert.Equal(t, CodeInvalidFilter, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/media?is_favorite=maybe", nil)
	assert.Equal(t, CodeInvalidRequest, errorCode(t, rec))
}

func TestSync_UnknownAuthorityAndBadBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/sync/com.other/media", AddMediaRequest{Items: []catalog.MediaItem{item("1", "", testDate, false)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeUnknownAuthority, errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/api/sync/"+testLocal+"/media", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, errorCode(t, rec))
}

func TestSync_RemoveResetAndHistory(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, testLocal, item("1", "", testDate, false))
	ts.add(t, testCloud, item("c1", "1", testDate, false), item("c2", "", testDate, false))

	rec := ts.do(t, http.MethodPost, "/api/sync/"+testLocal+"/media/remove", RemoveMediaRequest{IDs: []string{"1", "nope"}, Version: catalog.Int64(9)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[SyncResponse](t, rec).Applied)

	page := decode[MediaPage](t, ts.do(t, http.MethodGet, "/api/media", nil))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c1", page.Items[0].SourceID)

	rec = ts.do(t, http.MethodPost, "/api/sync/"+testCloud+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[SyncResponse](t, rec).Applied)
	assert.Empty(t, decode[MediaPage](t, ts.do(t, http.MethodGet, "/api/media", nil)).Items)

	rec = ts.do(t, http.MethodGet, "/api/sync/history?authority="+testLocal, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[struct {
		Records     []models.SyncRecord `json:"records"`
		LastVersion *int64              `json:"last_version"`
	}](t, rec)
	require.Len(t, history.Records, 2)
	require.NotNil(t, history.LastVersion)
	assert.Equal(t, int64(9), *history.LastVersion)

	rec = ts.do(t, http.MethodGet, "/api/sync/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[struct {
		Records []models.SyncRecord `json:"records"`
	}](t, rec)
	assert.Len(t, recent.Records, 2)

	rec = ts.do(t, http.MethodGet, "/api/sync/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, testLocal, item("1", "", testDate, false))
	ts.add(t, testCloud, item("c1", "", testDate, false))

	rec := ts.do(t, http.MethodGet, "/api/provider/cloud", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[ProviderResponse](t, rec)
	assert.Equal(t, testLocal, state.LocalAuthority)
	assert.Equal(t, testCloud, state.CloudAuthority)
	assert.True(t, state.CloudEnabled)
	assert.NotZero(t, state.UpdatedAt)

	rec = ts.do(t, http.MethodPut, "/api/provider/cloud", SetCloudProviderRequest{Authority: ""})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[ProviderResponse](t, rec)
	assert.False(t, state.CloudEnabled)
	assert.NotZero(t, state.UpdatedAt)
	assert.Empty(t, state.CloudAuthority)
	assert.Len(t, decode[MediaPage](t, ts.do(t, http.MethodGet, "/api/media", nil)).Items, 1)

	rec = ts.do(t, http.MethodPut, "/api/provider/cloud", SetCloudProviderRequest{Authority: testCloud})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[MediaPage](t, ts.do(t, http.MethodGet, "/api/media", nil)).Items, 2)

	rec = ts.do(t, http.MethodPut, "/api/provider/cloud", SetCloudProviderRequest{Authority: testLocal})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeUnknownAuthority, errorCode(t, rec))
}

func TestAlbumRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/albums/favorites", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/albums", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]catalog.AlbumSummary](t, rec)["albums"])

	ts.add(t, testLocal, item("1", "", testDate, true), item("2", "", testDate+1, true), item("3", "", testDate+2, false))

	rec = ts.do(t, http.MethodGet, "/api/albums/favorites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	album := decode[catalog.AlbumSummary](t, rec)
	assert.Equal(t, catalog.CategoryFavorites, album.ID)
	assert.Equal(t, "2", album.CoverSourceID)
	assert.Equal(t, int64(2), album.ItemCount)

	rec = ts.do(t, http.MethodGet, "/api/albums?mime_type=video/*", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string][]catalog.AlbumSummary](t, rec)["albums"])

	rec = ts.do(t, http.MethodGet, "/api/albums?size_bytes=-1", nil)
	assert.Equal(t, CodeInvalidFilter, errorCode(t, rec))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
