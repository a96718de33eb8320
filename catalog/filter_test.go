package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/mediapicker/database"
)

func TestNewQueryFilter_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"zero limit", FilterOptions{}},
		{"negative limit", FilterOptions{Limit: -1}},
		{"both bounds", FilterOptions{Limit: 1, DateTakenBeforeMs: Int64(1), DateTakenAfterMs: Int64(2)}},
		{"id without bound", FilterOptions{Limit: 1, ID: Int64(3)}},
		{"negative size", FilterOptions{Limit: 1, SizeBytes: Int64(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQueryFilter(tt.opts)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestQueryFilter_IsImmutable(t *testing.T) {
	before := Int64(dateTakenMs)
	opts := FilterOptions{Limit: 3, DateTakenBeforeMs: before, MimeType: "image/*"}
	f, err := NewQueryFilter(opts)
	require.NoError(t, err)

	*before = 1
	got := f.Options()
	require.NotNil(t, got.DateTakenBeforeMs)
	assert.Equal(t, dateTakenMs, *got.DateTakenBeforeMs)

	*got.DateTakenBeforeMs = 2
	assert.Equal(t, dateTakenMs, *f.Options().DateTakenBeforeMs)
	assert.Equal(t, 3, f.Limit())
}

func TestQueryFilter_Pages(t *testing.T) {
	f, err := NewQueryFilter(FilterOptions{Limit: 2, SizeBytes: Int64(9), IsFavorite: true})
	require.NoError(t, err)

	row := database.MediaRow{ID: 4, DateTakenMs: dateTakenMs}

	next := f.NextPage(row).Options()
	assert.Nil(t, next.DateTakenAfterMs)
	assert.Equal(t, dateTakenMs, *next.DateTakenBeforeMs)
	assert.Equal(t, int64(4), *next.ID)
	assert.Equal(t, int64(9), *next.SizeBytes)
	assert.True(t, next.IsFavorite)

	prev := f.NextPage(row).PreviousPage(row).Options()
	assert.Nil(t, prev.DateTakenBeforeMs)
	assert.Equal(t, dateTakenMs, *prev.DateTakenAfterMs)
	assert.Equal(t, 2, f.PreviousPage(row).Limit())

	_, err = NewQueryFilter(prev)
	assert.NoError(t, err)
	assert.Nil(t, f.Options().ID)
}
