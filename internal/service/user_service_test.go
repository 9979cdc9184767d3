package service

import (
	"context"
	"testing"

	"folio/internal/models"
	"folio/internal/repository"
	"folio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return NewUserService(repository.NewUserRepository(db)).WithHashCost(bcrypt.MinCost)
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: " Ada ", Email: "Ada@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.Password)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong password")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	_, err = svc.Authenticate(ctx, "ghost@example.com", "correct horse")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	byID, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
}

func TestUserService_Register_Validation(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]string{
		"name":     "The name field is required.",
		"email":    "The email field is required.",
		"password": "The password field is required.",
	}, appErr.Fields)

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "nope", Password: "short"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "The email field must be a valid email address.", appErr.Fields["email"])
	assert.Equal(t, "The password field must be at least 8 characters.", appErr.Fields["password"])

	_, err = svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "a@example.com", Password: "long enough"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "The email has already been taken.", appErr.Fields["email"])
}
