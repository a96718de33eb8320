package catalog

import (
	"net/url"
	"path"
	"strings"

	"github.com/camden-git/mediapicker/database"
)

// DedupKey groups rows from different authorities that describe the same asset.
type DedupKey struct {
	Namespace string
	ID        string
}

func (k DedupKey) ref() database.KeyRef {
	return database.KeyRef(k)
}

// ResolveKey computes the dedup key of row. A row linked to a local asset keys on that
// local id; anything else keys on its own id within its authority. A local row therefore
// shares its key with every cloud row linking to it.
func ResolveKey(localAuthority string, row database.MediaRow) DedupKey {
	if link := strings.TrimSpace(row.LocalLinkID); link != "" {
		return DedupKey{Namespace: localAuthority, ID: link}
	}
	return DedupKey{Namespace: row.Authority, ID: row.SourceID}
}

// linkFromMediaStoreURI extracts the local id from a media store uri such as
// content://media/external/file/50.
func linkFromMediaStoreURI(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}
