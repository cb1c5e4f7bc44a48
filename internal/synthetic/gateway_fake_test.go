package synthetic

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/models"
)

// memoryGateway is an in-memory Gateway with failure injection.
type memoryGateway struct {
	mu       sync.Mutex
	batches  map[string]*models.Batch
	entities []models.Entity

	batchErr  error
	failAt    int // 1-based CreateEntity call that fails; 0 disables
	entityErr error
	calls     int
	onCreate  func(n int)
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{batches: map[string]*models.Batch{}}
}

func (g *memoryGateway) CreateBatch(ctx context.Context, ownerID string) (*models.Batch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.batchErr != nil {
		return nil, g.batchErr
	}
	b := &models.Batch{ID: uuid.NewString(), UserID: ownerID}
	g.batches[b.ID] = b
	return b, nil
}

func (g *memoryGateway) FindBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.batches[batchID]
	if !ok {
		return nil, apierrors.NotFound("batch").Wrap(ErrBatchNotFound)
	}
	return b, nil
}

func (g *memoryGateway) CreateEntity(ctx context.Context, entity models.Entity) error {
	g.mu.Lock()
	g.calls++
	n := g.calls
	hook := g.onCreate
	if g.failAt == n {
		g.mu.Unlock()
		if g.entityErr != nil {
			return g.entityErr
		}
		return errors.New("insert failed")
	}
	switch e := entity.(type) {
	case *models.User:
		e.ID = uuid.NewString()
	case *models.Post:
		e.ID = uuid.NewString()
	case *models.Comment:
		e.ID = uuid.NewString()
	}
	g.entities = append(g.entities, entity)
	g.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return nil
}

func (g *memoryGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entities)
}

func (g *memoryGateway) batchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.batches)
}
