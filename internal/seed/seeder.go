// Package seed fills a database with a linked synthetic dataset by driving
// the generation pipeline: users, then posts by those users, then comments
// on those posts, all in one batch.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/models"
	"github.com/threadfit/backend/internal/synthetic"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registrar creates the account that owns seeded batches.
type Registrar interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

// Plan sizes a seeding run.
type Plan struct {
	OwnerEmail    string
	OwnerPassword string

	Users           int
	PostsPerUser    int
	CommentsPerPost int

	// Seed makes the dataset reproducible. Each pipeline run gets Seed plus
	// its position, so runs never replay each other's users.
	Seed  *int64
	Speed float64
}

// DevPlan is the dataset `seed dev` builds.
func DevPlan() Plan {
	return Plan{
		OwnerEmail:      "seed@threadfit.dev",
		OwnerPassword:   "seed-password",
		Users:           20,
		PostsPerUser:    3,
		CommentsPerPost: 4,
		Speed:           20,
	}
}

// TestPlan is the minimal dataset `seed test` builds.
func TestPlan() Plan {
	seed := int64(42)
	return Plan{
		OwnerEmail:      "seed-test@threadfit.dev",
		OwnerPassword:   "seed-password",
		Users:           3,
		PostsPerUser:    1,
		CommentsPerPost: 2,
		Seed:            &seed,
		Speed:           20,
	}
}

// Summary reports what a seeding run produced.
type Summary struct {
	OwnerID  string
	BatchID  string
	Users    int
	Posts    int
	Comments int
}

// Seeder handles database seeding operations
type Seeder struct {
	db        *gorm.DB
	generator synthetic.Generator
	accounts  Registrar
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, generator synthetic.Generator, accounts Registrar) *Seeder {
	return &Seeder{db: db, generator: generator, accounts: accounts}
}

// Seed builds the dataset described by plan.
func (s *Seeder) Seed(ctx context.Context, plan Plan) (*Summary, error) {
	owner, err := s.ensureOwner(ctx, plan.OwnerEmail, plan.OwnerPassword)
	if err != nil {
		return nil, err
	}
	summary := &Summary{OwnerID: owner.ID}
	step := int64(0)
	next := func() synthetic.Request {
		req := synthetic.Request{OwnerID: owner.ID, BatchID: summary.BatchID, Speed: plan.Speed}
		if plan.Seed != nil {
			seed := *plan.Seed + step
			req.Seed = &seed
		}
		step++
		return req
	}

	logger.Log.Info("Creating users...", zap.Int("amount", plan.Users))
	req := next()
	req.Action = synthetic.ActionGenerateUsers
	req.Amount = plan.Users
	req.OnBatch = func(b *models.Batch) { summary.BatchID = b.ID }
	users, err := s.collect(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	summary.Users = len(users)

	logger.Log.Info("Creating posts...", zap.Int("per_user", plan.PostsPerUser))
	var posts []models.Entity
	for _, user := range users {
		req := next()
		req.Action = synthetic.ActionGeneratePosts
		req.Amount = plan.PostsPerUser
		req.UserID = user.EntityID()
		created, err := s.collect(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to seed posts: %w", err)
		}
		posts = append(posts, created...)
	}
	summary.Posts = len(posts)

	logger.Log.Info("Creating comments...", zap.Int("per_post", plan.CommentsPerPost))
	for i, post := range posts {
		req := next()
		req.Action = synthetic.ActionGenerateComments
		req.Amount = plan.CommentsPerPost
		req.PostID = post.EntityID()
		// Comment as someone other than the author when there is anyone else.
		req.UserID = users[(i/max(plan.PostsPerUser, 1)+1)%len(users)].EntityID()
		created, err := s.collect(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to seed comments: %w", err)
		}
		summary.Comments += len(created)
	}

	logger.Log.Info("Seeding complete",
		logger.WithBatchID(summary.BatchID),
		zap.Int("users", summary.Users),
		zap.Int("posts", summary.Posts),
		zap.Int("comments", summary.Comments),
	)
	return summary, nil
}

// Clean removes every batch the seed owner produced, along with its entities.
// The owner account itself is kept.
func (s *Seeder) Clean(ctx context.Context, ownerEmail string) error {
	var owner models.User
	if err := s.db.WithContext(ctx).Where("email = ?", ownerEmail).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Info("No seed owner found, nothing to clean", zap.String("email", ownerEmail))
			return nil
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batches := tx.Model(&models.Batch{}).Select("id").Where("user_id = ?", owner.ID)
		// Children first so foreign keys hold throughout.
		for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
			res := tx.Where("batch_id IN (?)", batches).Delete(model)
			if res.Error != nil {
				return fmt.Errorf("failed to clean %T: %w", model, res.Error)
			}
			logger.Log.Info("Cleaned seeded rows", zap.String("table", fmt.Sprintf("%T", model)), zap.Int64("rows", res.RowsAffected))
		}
		return tx.Where("user_id = ?", owner.ID).Delete(&models.Batch{}).Error
	})
}

func (s *Seeder) ensureOwner(ctx context.Context, email, password string) (*models.User, error) {
	owner, err := s.accounts.Register(ctx, email, password)
	if err == nil {
		logger.Log.Info("Created seed owner", zap.String("email", email))
		return owner, nil
	}
	if !errors.Is(err, auth.ErrUserExists) {
		return nil, fmt.Errorf("failed to create seed owner: %w", err)
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load seed owner: %w", err)
	}
	return &existing, nil
}

func (s *Seeder) collect(ctx context.Context, req synthetic.Request) ([]models.Entity, error) {
	var out []models.Entity
	for res, err := range s.generator.Run(ctx, req) {
		if err != nil {
			return out, err
		}
		out = append(out, res.Entity)
	}
	return out, nil
}
