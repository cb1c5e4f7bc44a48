package synthetic

import (
	"context"
	"errors"

	"github.com/threadfit/backend/internal/models"
)

var (
	// ErrBatchNotFound is returned when a supplied batch id does not exist
	// or belongs to another principal.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrReferenceNotFound is returned when an entity points at a missing
	// user or post.
	ErrReferenceNotFound = errors.New("referenced record not found")
	// ErrDuplicateEntity is returned when a unique attribute is already taken.
	ErrDuplicateEntity = errors.New("entity already exists")
)

// Gateway persists batches and generated entities. Every call is its own
// transaction: it commits fully or leaves nothing behind, and on success the
// passed value carries the server-assigned fields.
type Gateway interface {
	CreateBatch(ctx context.Context, ownerID string) (*models.Batch, error)
	FindBatch(ctx context.Context, batchID string) (*models.Batch, error)
	CreateEntity(ctx context.Context, entity models.Entity) error
}
