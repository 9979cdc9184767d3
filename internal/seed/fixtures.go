package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"folio/internal/models"
	"folio/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is a hand-written data set, usually kept in a YAML file:
//
//	users:
//	  - name: Ada Lovelace
//	    email: ada@example.com
//	    password: analytical
//	posts:
//	  - author: ada@example.com
//	    title: Notes on the engine
//	    content: ...
//	    is_draft: false
//	    published_at: "2024-01-01 09:00:00"
type Fixtures struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

// UserFixture is one account. An empty password means DefaultPassword.
type UserFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// PostFixture is one post, linked to its author by email.
type PostFixture struct {
	Author      string `yaml:"author"`
	Title       string `yaml:"title"`
	Content     string `yaml:"content"`
	IsDraft     *bool  `yaml:"is_draft"`
	PublishedAt string `yaml:"published_at"`
}

// LoadFixtures decodes and checks a fixtures document.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFixtures(f)
}

func (fx *Fixtures) validate() error {
	var errs []error
	seen := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		switch {
		case strings.TrimSpace(u.Name) == "":
			errs = append(errs, fmt.Errorf("users[%d]: name is required", i))
		case email == "":
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
		case seen[email]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate email %s", i, email))
		}
		seen[email] = true
	}
	for i, p := range fx.Posts {
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
			errs = append(errs, fmt.Errorf("posts[%d]: title and content are required", i))
		}
		if p.PublishedAt != "" {
			if _, ok := service.ParsePublishedAt(p.PublishedAt); !ok {
				errs = append(errs, fmt.Errorf("posts[%d]: invalid published_at %q", i, p.PublishedAt))
			}
		}
	}
	return errors.Join(errs...)
}

// ApplyFixtures inserts the fixture users and posts in one transaction.
// Post authors may be fixture users or accounts that already exist.
func ApplyFixtures(ctx context.Context, db *gorm.DB, fx *Fixtures, hashCost int) error {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byEmail := make(map[string]uint, len(fx.Users))
		for _, uf := range fx.Users {
			password := uf.Password
			if password == "" {
				password = DefaultPassword
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", uf.Email, err)
			}
			u := &models.User{
				Name:     strings.TrimSpace(uf.Name),
				Email:    strings.ToLower(strings.TrimSpace(uf.Email)),
				Password: string(hash),
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
			byEmail[u.Email] = u.ID
		}

		for i, pf := range fx.Posts {
			email := strings.ToLower(strings.TrimSpace(pf.Author))
			authorID, ok := byEmail[email]
			if !ok {
				var existing models.User
				if err := tx.Where("email = ?", email).First(&existing).Error; err != nil {
					return fmt.Errorf("posts[%d]: unknown author %q: %w", i, pf.Author, err)
				}
				authorID = existing.ID
				byEmail[email] = authorID
			}

			p := &models.Post{
				Title:    strings.TrimSpace(pf.Title),
				Content:  strings.TrimSpace(pf.Content),
				IsDraft:  true,
				AuthorID: authorID,
			}
			if pf.IsDraft != nil {
				p.IsDraft = *pf.IsDraft
			}
			if at, ok := service.ParsePublishedAt(pf.PublishedAt); ok {
				p.PublishedAt = &at
			}
			if err := tx.Omit("Author").Create(p).Error; err != nil {
				return fmt.Errorf("posts[%d]: %w", i, err)
			}
		}
		return nil
	})
}
