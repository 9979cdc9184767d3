// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"folio/internal/models"
	"folio/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, id uint, changes map[string]any) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.Post, int64, error)
	ListActive(ctx context.Context, now time.Time, limit, offset int) ([]models.Post, int64, error)
	// Transaction runs fn against a repository bound to one database
	// transaction. Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(PostRepository) error) error
}

// postRepository implements PostRepository
type postRepository struct {
	db   *gorm.DB
	inTx bool
	log  *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:  db,
		log: observability.NewRepoLogger("posts"),
	}
}

// ScopeActive limits a query to posts visible to the public at now.
func ScopeActive(now time.Time) func(*gorm.DB) *gorm.DB {
	cutoff := now.UTC().Truncate(time.Second)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.is_draft = ? AND posts.published_at IS NOT NULL AND posts.published_at <= ?", false, cutoff)
	}
}

// lists may be served by the read replica; single-post reads stay on the
// primary so a write is always visible to the reload that follows it.
func (r *postRepository) lister() *gorm.DB {
	if r.inTx {
		return r.db
	}
	return readDB(r.db)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		if isForeignKeyError(err) {
			return models.NewFieldValidationError(map[string]string{
				"author_id": "The selected author id is invalid.",
			})
		}
		return models.NewInternalError(err)
	}
	r.log.Log(ctx, "create", "post_id", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		r.log.LogError(ctx, err, "get")
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
			r.log.LogError(ctx, err, "update")
			return models.NewInternalError(err)
		}
		if n == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	}

	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.Log(ctx, "update", "post_id", id)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	r.log.Log(ctx, "delete", "post_id", id)
	return nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, int64, error) {
	return r.page(ctx, "list", nil, limit, offset)
}

func (r *postRepository) ListActive(ctx context.Context, now time.Time, limit, offset int) ([]models.Post, int64, error) {
	return r.page(ctx, "list_active", ScopeActive(now), limit, offset)
}

func (r *postRepository) page(ctx context.Context, op string, scope func(*gorm.DB) *gorm.DB, limit, offset int) ([]models.Post, int64, error) {
	base := func() *gorm.DB {
		q := r.lister().WithContext(ctx).Model(&models.Post{})
		if scope != nil {
			q = q.Scopes(scope)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		r.log.LogError(ctx, err, op)
		return nil, 0, models.NewInternalError(err)
	}

	posts := make([]models.Post, 0, limit)
	if total == 0 || int64(offset) >= total {
		return posts, total, nil
	}

	err := base().
		Preload("Author").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		r.log.LogError(ctx, err, op)
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) Transaction(ctx context.Context, fn func(PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postRepository{db: tx, inTx: true, log: r.log})
	})
}
