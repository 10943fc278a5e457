package owner

// StorageKind describes where a node's content lives.
type StorageKind string

const (
	// StorageLocal is storage on this instance.
	StorageLocal StorageKind = "local"
	// StorageExternalShare is a share received from a remote instance.
	StorageExternalShare StorageKind = "external"
)

// Node is a file or folder as seen from one user's root.
// Path is relative to that user's root and starts with "/".
type Node struct {
	ID          int64
	Path        string
	Owner       string
	IsContainer bool
	Storage     StorageKind
}

// Resolution is the canonical ownership of an accessed resource.
type Resolution struct {
	Path        string
	Owner       string
	FileID      int64
	IsContainer bool
}
