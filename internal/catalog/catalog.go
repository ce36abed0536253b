// Package catalog retrieves per-day environmental archive files from a
// remote file store. A store is reached through a Dialer, which opens one
// Session per acquisition run; the session lists the store's day files and
// downloads them as strict UTF-8 text.
//
// Two backends exist: the producer's FTP server (the canonical store) and an
// S3-compatible bucket for deployments that mirror the FTP tree into object
// storage.
package catalog

import "errors"

// Failure classes for store operations. Callers match these with errors.Is;
// the concrete backends wrap them with operation detail.
var (
	// ErrAuth means the store rejected the configured credentials.
	ErrAuth = errors.New("authentication rejected")
	// ErrNetwork means the store could not be reached or the connection
	// was refused, timed out, or faulted while being established.
	ErrNetwork = errors.New("connection failed")
	// ErrListing means the directory listing could not be retrieved.
	ErrListing = errors.New("listing failed")
	// ErrTransfer means a file transfer faulted in transit.
	ErrTransfer = errors.New("transfer failed")
	// ErrDecode means retrieved bytes are not valid UTF-8 text.
	ErrDecode = errors.New("content is not valid UTF-8")
)

// Session is an open connection to the store. Sessions are not safe for
// concurrent use; each acquisition run owns its session exclusively and
// closes it when the run reaches a terminal state.
type Session interface {
	// List returns the names of the store's day files that match the
	// filename contract, in ascending filename order.
	List() ([]string, error)
	// Download retrieves one file and returns its content as UTF-8 text.
	Download(name string) (string, error)
	// Close releases the session. It tolerates being called more than
	// once and being called when no live connection remains.
	Close() error
}

// Dialer opens sessions against one configured store.
type Dialer interface {
	Dial() (Session, error)
}
