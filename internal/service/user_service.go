package service

import (
	"context"
	"strings"

	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/repository"
	"folio/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
	cost     int
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Register validates the input and creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	errs := validation.Errors{}
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case name == "":
		errs.Add("name", validation.Required("name"))
	case validation.TooLong(name, 255):
		errs.Add("name", validation.MaxChars("name", 255))
	}
	if email == "" {
		errs.Add("email", validation.Required("email"))
	} else if err := validation.ValidateEmail(email); err != nil {
		errs.Add("email", "The email field must be a valid email address.")
	}
	if in.Password == "" {
		errs.Add("password", validation.Required("password"))
	} else if err := validation.ValidatePassword(in.Password); err != nil {
		errs.Add("password", validation.MinChars("password", validation.MinPasswordLen))
		if len(in.Password) > validation.MaxPasswordBytes {
			errs["password"] = "The password field must not be greater than 72 bytes."
		}
	}
	if len(errs) > 0 {
		return nil, models.NewFieldValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: name, Email: email, Password: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.AuthEvents.WithLabelValues("register").Inc()
	return user, nil
}

// Authenticate returns the user whose email and password match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := models.NewUnauthorizedError("These credentials do not match our records.")

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			observability.AuthEvents.WithLabelValues("login_failed").Inc()
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.AuthEvents.WithLabelValues("login_failed").Inc()
		return nil, invalid
	}
	observability.AuthEvents.WithLabelValues("login").Inc()
	return user, nil
}
