package models

import (
	"time"

	"github.com/google/uuid"
)

// Article is a news/content entry written by journalists or admins.
type Article struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string     `gorm:"column:title;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Excerpt     *string    `gorm:"column:excerpt"`
	Body        string     `gorm:"column:body;not null"`
	CoverImage  *string    `gorm:"column:cover_image"`
	AuthorID    uuid.UUID  `gorm:"column:author_id;type:uuid;not null;index"`
	Published   bool       `gorm:"column:published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
