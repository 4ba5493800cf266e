package entity

// AssetKind classifies where a remote asset reference was found.
type AssetKind int

const (
	AssetImage AssetKind = iota
	AssetStyleBackground
	AssetVideoCover
)

func (k AssetKind) String() string {
	switch k {
	case AssetImage:
		return "image"
	case AssetStyleBackground:
		return "style_background"
	case AssetVideoCover:
		return "video_cover"
	default:
		return "unknown"
	}
}

// HostLocation identifies the node and attribute holding a reference.
// Start and End delimit the URL inside the attribute value for style references.
type HostLocation struct {
	Node      int
	Attribute string
	Start     int
	End       int
}

// AssetReference is one discovered remote reference inside a document.
type AssetReference struct {
	Kind      AssetKind
	SourceURL string
	TypeHint  string
	// PlayURL is the playable source of a video embed; empty for other kinds.
	PlayURL string
	Host    HostLocation
}

type AssetStatus string

const (
	AssetLocalized AssetStatus = "success"
	AssetFailed    AssetStatus = "failed"
)

// LocalizedAsset is the outcome of mirroring one AssetReference.
type LocalizedAsset struct {
	ID            string
	Extension     string
	PublicURL     string
	Status        AssetStatus
	FailureReason string
}

func (a LocalizedAsset) OK() bool {
	return a.Status == AssetLocalized
}
