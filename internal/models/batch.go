package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Batch groups every entity produced by one generation run. Batches are
// never updated; entities reference them through their BatchID column.
type Batch struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Owner     *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (b *Batch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
