package uploader

import "context"

// FileMetadata describes the source file to the negotiation backend.
type FileMetadata struct {
	Name        string
	Size        int64
	ContentType string
}

// PartAddress is the single-use upload address of one part.
type PartAddress struct {
	PartNumber int
	URL        string
}

// Session is what the backend returns when a multipart session is opened.
type Session struct {
	SessionID string
	ObjectKey string
	PartSize  int64
	Parts     []PartAddress
	// FinalAssetURL is where the asset is expected to live once finalized. It is
	// informational; Finalize returns the authoritative URL.
	FinalAssetURL string
}

// PartTag is the integrity token storage returned for one uploaded part.
type PartTag struct {
	PartNumber int
	Tag        string
}

// Negotiator manages the remote multipart session.
//
// Finalize receives tags sorted ascending by part number, one per planned part.
// Abort may be called any number of times.
type Negotiator interface {
	Open(ctx context.Context, meta FileMetadata) (*Session, error)
	Finalize(ctx context.Context, sessionID, objectKey string, tags []PartTag) (string, error)
	Abort(ctx context.Context, sessionID, objectKey string) error
}
