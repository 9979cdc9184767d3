package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "test@example.com", false},
		{"Empty", "", true},
		{"Invalid Format", "not-an-email", true},
		{"Missing Domain", "user@", true},
		{"No TLD", "user@localhost", true},
		{"Display Name", "Ada <ada@example.com>", true},
		{"Too Long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePassword("abcdefgh"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}

func TestMessages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "The title field is required.", Required("title"))
	assert.Equal(t, "The published at field must be a valid date.", Date("published_at"))
	assert.Equal(t, "The title field must not be greater than 255 characters.", MaxChars("title", 255))
	assert.Equal(t, "The is draft field must be true or false.", Boolean("is_draft"))

	assert.True(t, TooLong(strings.Repeat("é", 256), 255))
	assert.False(t, TooLong(strings.Repeat("é", 255), 255))
}

func TestErrors_FirstFailureWins(t *testing.T) {
	t.Parallel()
	errs := Errors{}
	errs.Add("title", "first")
	errs.Add("title", "second")
	assert.Equal(t, "first", errs["title"])
	assert.True(t, errs.Has("title"))
	assert.False(t, errs.Has("content"))
}
