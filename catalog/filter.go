package catalog

import (
	"fmt"

	"github.com/camden-git/mediapicker/database"
)

// FilterOptions are the recognised query options. Nil pointers and zero values mean
// "not set".
type FilterOptions struct {
	// Limit bounds the number of rows returned and is required.
	Limit int
	// DateTakenBeforeMs and DateTakenAfterMs are mutually exclusive page bounds.
	DateTakenBeforeMs *int64
	DateTakenAfterMs  *int64
	// ID breaks ties between rows sharing the bound's date. It needs a date bound.
	ID *int64
	// SizeBytes is an inclusive upper bound.
	SizeBytes *int64
	// MimeType is a glob such as "video/*".
	MimeType   string
	IsFavorite bool
}

// QueryFilter is a validated, immutable set of FilterOptions.
type QueryFilter struct {
	opts FilterOptions
}

// NewQueryFilter validates opts and returns a filter holding its own copy of them.
func NewQueryFilter(opts FilterOptions) (QueryFilter, error) {
	if opts.Limit <= 0 {
		return QueryFilter{}, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidFilter, opts.Limit)
	}
	if opts.DateTakenBeforeMs != nil && opts.DateTakenAfterMs != nil {
		return QueryFilter{}, fmt.Errorf("%w: date taken before and after are mutually exclusive", ErrInvalidFilter)
	}
	if opts.ID != nil && opts.DateTakenBeforeMs == nil && opts.DateTakenAfterMs == nil {
		return QueryFilter{}, fmt.Errorf("%w: id needs a date taken bound", ErrInvalidFilter)
	}
	if opts.SizeBytes != nil && *opts.SizeBytes < 0 {
		return QueryFilter{}, fmt.Errorf("%w: size bytes must not be negative", ErrInvalidFilter)
	}
	return QueryFilter{opts: copyOptions(opts)}, nil
}

// Options returns a copy of the filter's options.
func (f QueryFilter) Options() FilterOptions {
	return copyOptions(f.opts)
}

// Limit returns the maximum number of rows a query with f returns.
func (f QueryFilter) Limit() int {
	return f.opts.Limit
}

// NextPage returns the filter for the page that follows a page ending with last.
func (f QueryFilter) NextPage(last database.MediaRow) QueryFilter {
	opts := copyOptions(f.opts)
	opts.DateTakenAfterMs = nil
	opts.DateTakenBeforeMs = Int64(last.DateTakenMs)
	opts.ID = Int64(last.ID)
	return QueryFilter{opts: opts}
}

// PreviousPage returns the filter for the page that precedes a page starting with first.
func (f QueryFilter) PreviousPage(first database.MediaRow) QueryFilter {
	opts := copyOptions(f.opts)
	opts.DateTakenBeforeMs = nil
	opts.DateTakenAfterMs = Int64(first.DateTakenMs)
	opts.ID = Int64(first.ID)
	return QueryFilter{opts: opts}
}

func (f QueryFilter) mediaQuery(localAuthority string) database.MediaQuery {
	return database.MediaQuery{
		LocalAuthority: localAuthority,
		Limit:          uint64(f.opts.Limit),
		BeforeMs:       f.opts.DateTakenBeforeMs,
		AfterMs:        f.opts.DateTakenAfterMs,
		ID:             f.opts.ID,
		MaxSizeBytes:   f.opts.SizeBytes,
		MimeGlob:       f.opts.MimeType,
		FavoritesOnly:  f.opts.IsFavorite,
	}
}

// Int64 returns a pointer to v, for filling optional fields.
func Int64(v int64) *int64 {
	return &v
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	return Int64(*p)
}

func copyOptions(o FilterOptions) FilterOptions {
	o.DateTakenBeforeMs = copyInt64(o.DateTakenBeforeMs)
	o.DateTakenAfterMs = copyInt64(o.DateTakenAfterMs)
	o.ID = copyInt64(o.ID)
	o.SizeBytes = copyInt64(o.SizeBytes)
	return o
}
