package catalog

import (
	"strings"

	"github.com/camden-git/mediapicker/database"
)

// MediaItem is one descriptor handed over by the sync layer. Only SourceID is required.
type MediaItem struct {
	SourceID string `json:"id"`
	// LocalLinkID names the local asset this item duplicates, if any.
	LocalLinkID string `json:"local_id,omitempty"`
	// MediaStoreURI is used for the link when LocalLinkID is empty.
	MediaStoreURI string `json:"media_store_uri,omitempty"`
	// DateTakenMs defaults to insertion time when nil.
	DateTakenMs *int64 `json:"date_taken_ms,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	DurationMs  int64  `json:"duration_ms"`
	MimeType    string `json:"mime_type"`
	IsFavorite  bool   `json:"is_favorite"`
}

// valid reports whether the item carries the fields needed to store it.
func (it MediaItem) valid() bool {
	return strings.TrimSpace(it.SourceID) != ""
}

func (it MediaItem) linkID() string {
	if link := strings.TrimSpace(it.LocalLinkID); link != "" {
		return link
	}
	return linkFromMediaStoreURI(it.MediaStoreURI)
}

func (it MediaItem) toRow(authority string, nowMs int64) database.MediaRow {
	taken := nowMs
	if it.DateTakenMs != nil {
		taken = *it.DateTakenMs
	}
	return database.MediaRow{
		SourceID:    strings.TrimSpace(it.SourceID),
		Authority:   authority,
		LocalLinkID: it.linkID(),
		DateTakenMs: taken,
		SizeBytes:   it.SizeBytes,
		DurationMs:  it.DurationMs,
		MimeType:    it.MimeType,
		IsFavorite:  it.IsFavorite,
	}
}
