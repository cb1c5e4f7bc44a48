package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account. Generated users carry the batch that produced them;
// registered users have BatchID nil.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	IsSuperuser  bool      `gorm:"default:false;not null" json:"is_superuser"`
	IsVerified   bool      `gorm:"default:false;not null" json:"is_verified"`
	BatchID      *string   `gorm:"type:varchar(36);index" json:"batch_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Batch owners are users, so this key is added after both tables exist
	// (see database.MigrateDB) instead of inline.
	Batch *Batch `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE;-:migration" json:"-"`

	// Password is the plaintext credential of a generated user. It is never
	// stored; the gateway hashes it into PasswordHash.
	Password string `gorm:"-" json:"-"`
}

// Post is a text post owned by a user.
type Post struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:200;not null;index" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsPublished bool      `gorm:"default:false;not null" json:"is_published"`
	BatchID     *string   `gorm:"type:varchar(36);index" json:"batch_id,omitempty"`
	Batch       *Batch    `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	BatchID   *string   `gorm:"type:varchar(36);index" json:"batch_id,omitempty"`
	Batch     *Batch    `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
