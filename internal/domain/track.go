package domain

// CatalogIDLen is the fixed length of an external-catalog video identifier.
// A track reference of exactly this length is treated as a catalog id,
// anything else non-empty as a direct playable URL. The convention is
// inherited and kept in one place so a typed reference can replace it later.
const CatalogIDLen = 11

type Track string

type TrackKind int

const (
	TrackNone TrackKind = iota
	TrackCatalogID
	TrackURL
)

func (t Track) Kind() TrackKind {
	switch {
	case len(t) == 0:
		return TrackNone
	case len(t) == CatalogIDLen:
		return TrackCatalogID
	default:
		return TrackURL
	}
}

func (t Track) IsCatalogID() bool { return t.Kind() == TrackCatalogID }

func (t Track) IsURL() bool { return t.Kind() == TrackURL }
