package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadfit/backend/internal/config"
	"github.com/threadfit/backend/internal/models"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: "file::memory:"}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, &gorm.Config{})
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}

func TestMigrateDB_IsIdempotent(t *testing.T) {
	db := openMemory(t)

	require.NoError(t, MigrateDB(db))
	require.NoError(t, MigrateDB(db))

	for _, model := range []any{&models.User{}, &models.Batch{}, &models.Post{}, &models.Comment{}} {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Post{}, "idx_posts_batch_created"))
	assert.True(t, db.Migrator().HasConstraint(&models.User{}, userBatchFK))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "idx_users_email"))
	assert.True(t, db.Migrator().HasIndex(&models.User{}, "idx_users_batch_id"))
}

func TestMigrateDB_GeneratedEntitiesNeedTheirBatch(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, MigrateDB(db))

	owner := &models.User{Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)

	missing := "00000000-0000-0000-0000-000000000000"
	assert.Error(t, db.Create(&models.User{Email: "ghost@example.com", PasswordHash: "x", BatchID: &missing}).Error)
	assert.Error(t, db.Create(&models.Post{UserID: owner.ID, Title: "t", Content: "c", BatchID: &missing}).Error)

	batch := &models.Batch{UserID: owner.ID}
	require.NoError(t, db.Create(batch).Error)
	generated := &models.User{Email: "gen@example.com", PasswordHash: "x", BatchID: &batch.ID}
	require.NoError(t, db.Create(generated).Error)
	post := &models.Post{UserID: owner.ID, Title: "t", Content: "c", BatchID: &batch.ID}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.Comment{UserID: generated.ID, PostID: post.ID, Content: "c", BatchID: &batch.ID}).Error)

	// Removing a batch removes what it produced, and nothing else.
	require.NoError(t, db.Delete(batch).Error)
	var users, posts, comments int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(1), users)
	assert.Zero(t, posts)
	assert.Zero(t, comments)
}

func TestDropAllDB(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, MigrateDB(db))

	require.NoError(t, DropAllDB(db))

	for _, model := range []any{&models.User{}, &models.Batch{}, &models.Post{}, &models.Comment{}} {
		assert.False(t, db.Migrator().HasTable(model), "%T", model)
	}
}

func TestGlobalHelpersRequireInitialize(t *testing.T) {
	prev := DB
	DB = nil
	t.Cleanup(func() { DB = prev })

	assert.Error(t, Migrate())
	assert.Error(t, DropAll())
	assert.Error(t, Health())
	assert.NoError(t, Close())
}
