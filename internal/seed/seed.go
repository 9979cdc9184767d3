package seed

import (
	"context"
	"fmt"
	"log/slog"

	"folio/internal/middleware"
	"folio/internal/models"

	"gorm.io/gorm"
)

// Options configures a generated data set.
type Options struct {
	Users    int
	Posts    int
	Clean    bool
	Seed     int64
	HashCost int
	Mix      *Distribution
}

// Result counts what a run inserted.
type Result struct {
	Users int
	Posts int
}

// Seeder fills a database with generated users and posts.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Clean removes every post and user.
func (s *Seeder) Clean(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("clean posts: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clean users: %w", err)
		}
		return nil
	})
}

// Run creates opts.Users users and spreads opts.Posts posts across them.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users <= 0 && opts.Posts > 0 {
		return nil, fmt.Errorf("posts need at least one user")
	}
	if opts.Clean {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(s.db, opts.Seed, opts.HashCost)
	if err != nil {
		return nil, err
	}
	mix := defaultDistribution
	if opts.Mix != nil {
		mix = *opts.Mix
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i+1, err)
		}
		users = append(users, u)
	}

	posts := make([]*models.Post, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		posts = append(posts, f.BuildPost(users[i%len(users)], mix))
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "Seed complete",
		slog.Int("users", len(users)),
		slog.Int("posts", len(posts)),
	)
	return &Result{Users: len(users), Posts: len(posts)}, nil
}
