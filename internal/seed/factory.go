// Package seed creates demo and fixture data for development databases.
// It is not used by the API at runtime.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"folio/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Distribution is the share of generated posts in each visibility state.
// The remainder after Drafts and Scheduled is published.
type Distribution struct {
	Drafts    float64
	Scheduled float64
}

var defaultDistribution = Distribution{Drafts: 0.2, Scheduled: 0.1}

// Factory builds users and posts with fake content.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	now     func() time.Time
	maxDays int
	hash    string
}

// NewFactory creates a Factory. A zero seed uses a random one.
func NewFactory(db *gorm.DB, seed int64, hashCost int) (*Factory, error) {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	// Every generated user shares one hash; bcrypt per user dominates seeding time.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash default password: %w", err)
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		now:     func() time.Time { return time.Now().UTC() },
		maxDays: 90,
		hash:    string(hash),
	}, nil
}

// BuildUser returns an unsaved user with a unique email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	name := f.faker.Name()
	local := strings.ToLower(strings.NewReplacer(" ", ".", "'", "").Replace(name))
	u := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s.%s@example.com", local, f.faker.LetterN(6)),
		Password: f.hash,
	}
	for _, o := range overrides {
		o(u)
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return u
}

// CreateUser builds and saves a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	u := f.BuildUser(overrides...)
	if err := f.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// BuildPost returns an unsaved post by author. The state is picked from d:
// a draft, a post scheduled in the future, or one published in the past.
func (f *Factory) BuildPost(author *models.User, d Distribution, overrides ...func(*models.Post)) *models.Post {
	now := f.now()
	created := now.Add(-time.Duration(f.faker.Number(60, f.maxDays*24*60)) * time.Minute).Truncate(time.Second)

	p := &models.Post{
		Title:     strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Content:   f.faker.Paragraph(f.faker.Number(1, 4), 4, 12, "\n\n"),
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}

	roll := f.faker.Float64Range(0, 1)
	switch {
	case roll < d.Drafts:
		p.IsDraft = true
	case roll < d.Drafts+d.Scheduled:
		at := now.Add(time.Duration(f.faker.Number(1, 14*24)) * time.Hour).Truncate(time.Second)
		p.PublishedAt = &at
	default:
		at := f.faker.DateRange(created, now).UTC().Truncate(time.Second)
		p.PublishedAt = &at
	}

	for _, o := range overrides {
		o(p)
	}
	return p
}

// CreatePostsBatch saves posts in batches of 100.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Omit("Author").CreateInBatches(posts, 100).Error
}
