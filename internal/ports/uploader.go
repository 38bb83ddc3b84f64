package ports

import (
	"context"

	"github.com/bft-labs/flashship/pkg/form"
)

// Uploader talks to the card's upload endpoint.
// Every method returns an error for transport failures and non-2xx replies.
type Uploader interface {
	// Prime registers the modification time for the next upload.
	Prime(ctx context.Context, stamp uint32) error

	// Upload posts the serialized form.
	Upload(ctx context.Context, f *form.Form) error

	// RemoteDigest fetches filename from the card and returns its hex MD5,
	// hashing at most maxBytes bytes.
	RemoteDigest(ctx context.Context, filename string, maxBytes int64) (string, error)
}
