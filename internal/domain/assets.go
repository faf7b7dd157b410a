package domain

// AssetKind distinguishes cached visual/audio assets
type AssetKind int

const (
	AssetThumbnail AssetKind = iota // RGB swatch for one thumbnail slot
	AssetWaveform                   // Normalized peak levels for one waveform block
)

// CacheKey identifies one sub-asset of a timeline item.
// Comparable, so it can be used directly as a map key.
type CacheKey struct {
	ItemID string
	Kind   AssetKind
	Index  int // Thumbnail slot or waveform block, >= 0
}

// Asset is a decoded asset held by the media cache
type Asset struct {
	Kind AssetKind
	Data []byte
}

// Size returns the byte size used for capacity accounting
func (a Asset) Size() int64 {
	return int64(len(a.Data))
}

// AssetRequest asks an asset source for a range of sub-assets of one item
type AssetRequest struct {
	ItemID   string
	Kind     AssetKind
	First    int    // First index requested
	Count    int    // Number of consecutive indexes
	SizeHint int    // Desired samples per asset (waveform buckets)
	Token    uint64 // Epoch the request was issued under
}

// AssetDelivery is one generated asset, tagged with the request's epoch
type AssetDelivery struct {
	Key   CacheKey
	Asset Asset
	Token uint64
}
