package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/camden-git/mediapicker/catalog"
	"github.com/camden-git/mediapicker/database"
)

func writeJSONOut(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMediaTable(w io.Writer, rows []database.MediaRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE ID\tAUTHORITY\tDATE TAKEN MS\tSIZE\tMIME\tFAVORITE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%t\n",
			r.ID, r.SourceID, r.Authority, r.DateTakenMs, r.SizeBytes, r.MimeType, r.IsFavorite)
	}
	return tw.Flush()
}

func writeAlbum(w io.Writer, album *catalog.AlbumSummary) {
	if album == nil {
		fmt.Fprintln(w, "no favorites")
		return
	}
	fmt.Fprintf(w, "%s: %d item(s), cover %s (%s) taken %d\n",
		album.DisplayName, album.ItemCount, album.CoverSourceID, album.CoverAuthority, album.CoverDateTakenMs)
}
