package synthetic

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/threadfit/backend/internal/errors"
	"github.com/threadfit/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// GormGateway is the Gateway backed by the application database.
type GormGateway struct {
	db       *gorm.DB
	hashCost int
}

var _ Gateway = (*GormGateway)(nil)

// NewGormGateway creates a gateway. hashCost is the bcrypt cost used for
// generated passwords; values below bcrypt.MinCost fall back to the default.
func NewGormGateway(db *gorm.DB, hashCost int) *GormGateway {
	if hashCost < bcrypt.MinCost {
		hashCost = bcrypt.DefaultCost
	}
	return &GormGateway{db: db, hashCost: hashCost}
}

func (g *GormGateway) CreateBatch(ctx context.Context, ownerID string) (*models.Batch, error) {
	batch := &models.Batch{UserID: ownerID}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &models.User{}, ownerID, "user"); err != nil {
			return err
		}
		if err := tx.Create(batch).Error; err != nil {
			return apierrors.InternalError("failed to create batch").Wrap(err)
		}
		return tx.First(batch, "id = ?", batch.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (g *GormGateway) FindBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	var batch models.Batch
	err := g.db.WithContext(ctx).First(&batch, "id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("batch").Wrap(ErrBatchNotFound)
	}
	if err != nil {
		return nil, apierrors.InternalError("failed to load batch").Wrap(err)
	}
	return &batch, nil
}

func (g *GormGateway) CreateEntity(ctx context.Context, entity models.Entity) error {
	// Hash outside the transaction; bcrypt is slow on purpose.
	if user, ok := entity.(*models.User); ok && user.PasswordHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), g.hashCost)
		if err != nil {
			return apierrors.InternalError("failed to hash password").Wrap(err)
		}
		user.PasswordHash = string(hash)
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch e := entity.(type) {
		case *models.User:
			var count int64
			if err := tx.Model(&models.User{}).Where("email = ?", e.Email).Count(&count).Error; err != nil {
				return apierrors.InternalError("failed to create user").Wrap(err)
			}
			if count > 0 {
				return apierrors.Conflict("user with this email").Wrap(ErrDuplicateEntity)
			}
		case *models.Post:
			if err := requireRow(tx, &models.User{}, e.UserID, "user"); err != nil {
				return err
			}
		case *models.Comment:
			if err := requireRow(tx, &models.Post{}, e.PostID, "post"); err != nil {
				return err
			}
			if err := requireRow(tx, &models.User{}, e.UserID, "user"); err != nil {
				return err
			}
		default:
			return apierrors.InternalError(fmt.Sprintf("unsupported entity kind %q", entity.Kind()))
		}

		if err := tx.Create(entity).Error; err != nil {
			return apierrors.InternalError(fmt.Sprintf("failed to create %s", entity.Kind())).Wrap(err)
		}
		// Refresh so the caller sees database-assigned columns.
		if err := tx.First(entity, "id = ?", entity.EntityID()).Error; err != nil {
			return apierrors.InternalError(fmt.Sprintf("failed to reload %s", entity.Kind())).Wrap(err)
		}
		return nil
	})
}

// requireRow fails with a NotFound APIError when no row of model has id.
func requireRow(tx *gorm.DB, model any, id, resource string) error {
	if id == "" {
		return apierrors.NotFound(resource).Wrap(ErrReferenceNotFound)
	}
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return apierrors.InternalError(fmt.Sprintf("failed to look up %s", resource)).Wrap(err)
	}
	if count == 0 {
		return apierrors.NotFound(resource).Wrap(ErrReferenceNotFound)
	}
	return nil
}
