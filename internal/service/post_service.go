// Package service implements the application's business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PageSize is the fixed number of posts per page.
const PageSize = 20

// maxPage keeps the computed offset inside an int32 for every driver.
const maxPage = math.MaxInt32 / PageSize

// PostPage is one page of posts plus paginator metadata.
type PostPage struct {
	Data        []models.Post `json:"data"`
	CurrentPage int           `json:"current_page"`
	LastPage    int           `json:"last_page"`
	PerPage     int           `json:"per_page"`
	Total       int64         `json:"total"`
}

// PostService owns the post lifecycle: visibility, ownership and validation.
type PostService struct {
	postRepo repository.PostRepository
	now      func() time.Time
}

// NewPostService creates a PostService that reads the wall clock.
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for visibility checks.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// CanModify reports whether callerID may edit or delete post.
func CanModify(callerID uint, post *models.Post) bool {
	return post != nil && callerID != 0 && callerID == post.AuthorID
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}

func (s *PostService) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, end := observability.StartServiceSpan(ctx, "PostService", op, attrs...)
	return ctx, func(err error) {
		observability.RecordPostOperation(op, outcome(err))
		end(err)
	}
}

// List returns every post, drafts included, newest first.
func (s *PostService) List(ctx context.Context, page int) (result *PostPage, err error) {
	ctx, end := s.begin(ctx, "list", attribute.Int("page", page))
	defer func() { end(err) }()

	return s.paginate(page, func(limit, offset int) ([]models.Post, int64, error) {
		return s.postRepo.List(ctx, limit, offset)
	})
}

// ListPublished returns only posts that are publicly visible right now.
func (s *PostService) ListPublished(ctx context.Context, page int) (result *PostPage, err error) {
	ctx, end := s.begin(ctx, "list_published", attribute.Int("page", page))
	defer func() { end(err) }()

	now := s.now()
	return s.paginate(page, func(limit, offset int) ([]models.Post, int64, error) {
		return s.postRepo.ListActive(ctx, now, limit, offset)
	})
}

func (s *PostService) paginate(page int, fetch func(limit, offset int) ([]models.Post, int64, error)) (*PostPage, error) {
	if page < 1 {
		page = 1
	}
	offset := math.MaxInt32
	if page <= maxPage {
		offset = (page - 1) * PageSize
	}

	posts, total, err := fetch(PageSize, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return &PostPage{
		Data:        posts,
		CurrentPage: page,
		LastPage:    int((total + PageSize - 1) / PageSize),
		PerPage:     PageSize,
		Total:       total,
	}, nil
}

// GetPublished returns the post only if it is publicly visible. Drafts and
// future-dated posts are reported as not found.
func (s *PostService) GetPublished(ctx context.Context, id uint) (post *models.Post, err error) {
	ctx, end := s.begin(ctx, "get_published", attribute.Int64("post.id", int64(id)))
	defer func() { end(err) }()

	post, err = s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsActive(s.now()) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// GetForEdit returns the post to its author.
func (s *PostService) GetForEdit(ctx context.Context, callerID, id uint) (post *models.Post, err error) {
	ctx, end := s.begin(ctx, "get_for_edit", attribute.Int64("post.id", int64(id)))
	defer func() { end(err) }()

	return s.owned(ctx, callerID, id)
}

func (s *PostService) owned(ctx context.Context, callerID, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModify(callerID, post) {
		return nil, models.NewForbiddenError("This action is unauthorized.")
	}
	return post, nil
}

// Create validates the input and stores a new post authored by callerID.
// The insert and the reload run in one transaction.
func (s *PostService) Create(ctx context.Context, callerID uint, in PostInput) (post *models.Post, err error) {
	ctx, end := s.begin(ctx, "create", attribute.Int64("caller.id", int64(callerID)))
	defer func() { end(err) }()

	if callerID == 0 {
		return nil, models.NewUnauthorizedError("Unauthenticated.")
	}
	changes, err := in.changes(false)
	if err != nil {
		return nil, err
	}

	draft := &models.Post{
		Title:    changes["title"].(string),
		Content:  changes["content"].(string),
		IsDraft:  changes["is_draft"].(bool),
		AuthorID: callerID,
	}
	if t, ok := changes["published_at"].(time.Time); ok {
		draft.PublishedAt = &t
	}

	var created *models.Post
	err = s.postRepo.Transaction(ctx, func(tx repository.PostRepository) error {
		if err := tx.Create(ctx, draft); err != nil {
			return err
		}
		loaded, err := tx.GetByID(ctx, draft.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies the supplied fields to a post owned by callerID.
func (s *PostService) Update(ctx context.Context, callerID, id uint, in PostInput) (post *models.Post, err error) {
	ctx, end := s.begin(ctx, "update", attribute.Int64("post.id", int64(id)))
	defer func() { end(err) }()

	post, err = s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	changes, err := in.changes(true)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return post, nil
	}
	if err := s.postRepo.Update(ctx, id, changes); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, id)
}

// Delete permanently removes a post owned by callerID.
func (s *PostService) Delete(ctx context.Context, callerID, id uint) (err error) {
	ctx, end := s.begin(ctx, "delete", attribute.Int64("post.id", int64(id)))
	defer func() { end(err) }()

	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, id)
}
