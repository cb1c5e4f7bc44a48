package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/threadfit/backend/internal/auth"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/database"
	"github.com/threadfit/backend/internal/logger"
	"github.com/threadfit/backend/internal/seed"
	"github.com/threadfit/backend/internal/synthetic"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var overrides struct {
	owner           string
	password        string
	users           int
	postsPerUser    int
	commentsPerPost int
	seed            int64
	speed           float64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:          "seed",
		Short:        "Fill the database with a linked synthetic dataset",
		SilenceUsage: true,
	}

	devCmd := &cobra.Command{
		Use:   "dev",
		Short: "Seed the development database with a realistic dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, seed.DevPlan())
		},
	}
	testCmd := &cobra.Command{
		Use:   "test",
		Short: "Seed a small reproducible dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, seed.TestPlan())
		},
	}
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove every batch the seed owner produced",
		RunE: func(cmd *cobra.Command, args []string) error {
			seeder, done, err := open()
			if err != nil {
				return err
			}
			defer done()

			owner := overrides.owner
			if owner == "" {
				owner = seed.DevPlan().OwnerEmail
			}
			if err := seeder.Clean(cmd.Context(), owner); err != nil {
				return fmt.Errorf("clean failed: %w", err)
			}
			logger.Log.Info("Seed data cleaned successfully")
			return nil
		},
	}

	for _, c := range []*cobra.Command{devCmd, testCmd} {
		f := c.Flags()
		f.IntVar(&overrides.users, "users", 0, "Generated users (default from the plan)")
		f.IntVar(&overrides.postsPerUser, "posts-per-user", 0, "Posts per generated user")
		f.IntVar(&overrides.commentsPerPost, "comments-per-post", 0, "Comments per generated post")
		f.Int64Var(&overrides.seed, "seed", 0, "Seed for a reproducible dataset")
		f.Float64Var(&overrides.speed, "speed", 0, "Speed multiplier")
		f.StringVar(&overrides.password, "password", "", "Password for a newly created seed owner")
	}
	root.PersistentFlags().StringVar(&overrides.owner, "owner", "", "Email of the account that owns seeded batches")
	root.AddCommand(devCmd, testCmd, cleanCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, plan seed.Plan) error {
	f := cmd.Flags()
	if overrides.owner != "" {
		plan.OwnerEmail = overrides.owner
	}
	if f.Changed("password") {
		plan.OwnerPassword = overrides.password
	}
	if f.Changed("users") {
		plan.Users = overrides.users
	}
	if f.Changed("posts-per-user") {
		plan.PostsPerUser = overrides.postsPerUser
	}
	if f.Changed("comments-per-post") {
		plan.CommentsPerPost = overrides.commentsPerPost
	}
	if f.Changed("seed") {
		plan.Seed = &overrides.seed
	}
	if f.Changed("speed") {
		plan.Speed = overrides.speed
	}

	seeder, done, err := open()
	if err != nil {
		return err
	}
	defer done()

	summary, err := seeder.Seed(cmd.Context(), plan)
	if err != nil {
		logger.Log.Error("Seeding failed", zap.Error(err))
		return err
	}
	logger.Log.Info("Database seeded successfully",
		zap.String("owner", plan.OwnerEmail),
		logger.WithBatchID(summary.BatchID),
	)
	return nil
}

func open() (*seed.Seeder, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(cfg.LogLevel, ""); err != nil {
		return nil, nil, err
	}
	if err := database.Initialize(cfg.Database, false); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, nil, err
	}

	pipeline := synthetic.NewPipeline(
		synthetic.NewGormGateway(database.DB, bcrypt.DefaultCost),
		nil,
		synthetic.Options{MinDelay: cfg.Stream.MinDelay, IsolateSeededRuns: true},
	)
	seeder := seed.NewSeeder(database.DB, pipeline, auth.NewService(database.DB, cfg.Auth))
	return seeder, func() {
		_ = database.Close()
		_ = logger.Close()
	}, nil
}
