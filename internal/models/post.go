// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is a blog post owned by exactly one author.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"size:255;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	// No gorm default tag: GORM omits zero values of defaulted columns on insert.
	IsDraft     bool       `gorm:"not null" json:"is_draft"`
	PublishedAt *time.Time `json:"published_at"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsActive reports whether the post is publicly visible at now: published
// (not a draft) with a publish time that is set and not in the future.
func (p *Post) IsActive(now time.Time) bool {
	if p == nil || p.IsDraft || p.PublishedAt == nil {
		return false
	}
	return !p.PublishedAt.After(now)
}

// PublishedAtLayout is the canonical storage/display layout for publish times.
const PublishedAtLayout = "2006-01-02 15:04:05"
