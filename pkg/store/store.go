// Package store persists drawings for authenticated users.
//
// Records hold the compact form produced by package codec rather than the
// JSON document, which keeps stored rows small and lets the share path and
// the persistence path use one representation. [Record.Document] decodes it.
//
// Two backends are provided: [MemoryStore] for tests and single-process use,
// and [MongoStore] for deployments. Both return [ErrNotFound] (code
// DRAWING_NOT_FOUND) for unknown IDs and validate documents before writing.
// Ownership is not enforced here; callers compare [Record.OwnerID] with the
// requesting user.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pixelshare/pkg/codec"
	"github.com/matzehuels/pixelshare/pkg/drawing"
	"github.com/matzehuels/pixelshare/pkg/errors"
)

// ErrNotFound is returned when no drawing has the requested ID.
var ErrNotFound = errors.New(errors.ErrCodeDrawingNotFound, "drawing not found")

// Record is one stored drawing.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	OwnerID   string    `json:"ownerId" bson:"owner_id"`
	Drawing   string    `json:"drawingData" bson:"drawing_data"` // compact form
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Document decodes the stored compact form.
func (r *Record) Document() (*drawing.Document, error) {
	d, err := codec.Unmarshal(r.Drawing)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stored drawing %s is corrupt", r.ID)
	}
	return d, nil
}

// Store is the persistence interface for drawings.
type Store interface {
	// Create stores doc for ownerID under a new ID.
	Create(ctx context.Context, ownerID string, doc *drawing.Document) (*Record, error)

	// Get returns the record with id.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns ownerID's records, most recently updated first.
	List(ctx context.Context, ownerID string) ([]*Record, error)

	// Update replaces the drawing stored under id.
	Update(ctx context.Context, id string, doc *drawing.Document) (*Record, error)

	// Delete removes the record with id.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewID returns a random record ID.
func NewID() string {
	return uuid.NewString()
}

// encode validates doc and returns its compact form.
func encode(doc *drawing.Document) (string, error) {
	if doc == nil {
		return "", errors.New(errors.ErrCodeInvalidDrawing, "drawing is required")
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}
	return codec.Marshal(doc), nil
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeDrawingNotFound, ErrNotFound, "drawing %s not found", id)
}

// now is replaced in tests that need distinct timestamps.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
